package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/bndr/gotabulate"
	"github.com/starius/magnet"
)

type CLI struct {
	Adapter AdapterCmd `cmd:"" help:"Generate typed Go adapters for declared services."`
	Openapi OpenapiCmd `cmd:"" help:"Generate an OpenAPI 3 document for declared services."`
	Routes  RoutesCmd  `cmd:"" help:"Print the table of compiled routes."`
}

type AdapterCmd struct {
	Services string `arg:"" help:"YAML file with service declarations." type:"existingfile"`
	Package  string `help:"Package name of the generated file." short:"p" required:""`
	Out      string `help:"Output file, stdout if empty." short:"o"`
}

func (c *AdapterCmd) Run() error {
	services, err := loadServices(c.Services)
	if err != nil {
		return err
	}
	src, err := magnet.GenerateAdapter(c.Package, services...)
	if err != nil {
		return err
	}
	return writeOutput(c.Out, src)
}

type OpenapiCmd struct {
	Services string `arg:"" help:"YAML file with service declarations." type:"existingfile"`
	Title    string `help:"Title of the API." default:"API"`
	Version  string `help:"Version of the API." default:"1.0.0"`
	Out      string `help:"Output file, stdout if empty." short:"o"`
}

func (c *OpenapiCmd) Run() error {
	services, err := loadServices(c.Services)
	if err != nil {
		return err
	}
	doc, err := magnet.GenerateOpenAPI(c.Title, c.Version, services...)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	return writeOutput(c.Out, append(content, '\n'))
}

type RoutesCmd struct {
	Services string `arg:"" help:"YAML file with service declarations." type:"existingfile"`
	BaseURL  string `help:"Base URL the routes are resolved against." default:"http://localhost"`
}

func (c *RoutesCmd) Run() error {
	services, err := loadServices(c.Services)
	if err != nil {
		return err
	}
	client, err := magnet.NewClient(c.BaseURL)
	if err != nil {
		return err
	}
	defer client.Close()

	var rows [][]string
	for _, s := range services {
		for _, m := range s.Methods {
			desc, err := client.Describe(s, m.Name)
			if err != nil {
				return err
			}
			rows = append(rows, []string{
				desc.Key().String(),
				desc.Verb(),
				desc.PathTemplate(),
				strings.Join(desc.PathParams(), ","),
				fmt.Sprintf("%d", desc.NumParams()),
				bodyKind(desc),
			})
		}
	}
	if len(rows) == 0 {
		return fmt.Errorf("no methods declared in %s", c.Services)
	}

	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"method", "verb", "path", "placeholders", "params", "body"})
	t.SetAlign("left")
	_, err = fmt.Println(t.Render("grid"))
	return err
}

func bodyKind(desc *magnet.MethodDescriptor) string {
	switch {
	case desc.HasMultipart():
		return "multipart"
	case desc.HasBody():
		return "yes"
	}
	return "-"
}

func loadServices(path string) ([]*magnet.Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	services, err := magnet.LoadServices(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return services, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("magnetgen"),
		kong.Description("Code and docs generator for declarative HTTP services."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
