package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starius/magnet"
	"github.com/starius/magnet/example"
	"go.uber.org/zap"
)

// wait executes call and blocks until its outcome is known.
func wait[T any](call *magnet.Call) (T, error) {
	var (
		result T
		err    error
		wg     sync.WaitGroup
	)
	wg.Add(1)
	execErr := magnet.Execute(call, magnet.CallbackFuncs[T]{
		OnSuccess: func(statusCode int, value T) {
			defer wg.Done()
			result = value
		},
		OnOffline: func() {
			defer wg.Done()
			err = fmt.Errorf("server is offline")
		},
		OnFailure: func(e error) {
			defer wg.Done()
			err = e
		},
	})
	if execErr != nil {
		return result, execErr
	}
	wg.Wait()
	return result, err
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck
	sugar := logger.Sugar()

	config, err := magnet.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("failed to load config: %v", err)
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8080"
	}
	client, err := magnet.New(config, magnet.ErrorLogger(sugar.Errorf), magnet.RequestID("X-Request-Id"))
	if err != nil {
		sugar.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	items, err := example.NewItemsClient(client)
	if err != nil {
		sugar.Fatalf("failed to compile Items: %v", err)
	}

	created, err := wait[*example.Item](items.CreateItem(&example.Item{Name: "blue mug", Price: 9.5}))
	if err != nil {
		sugar.Fatalf("CreateItem failed: %v", err)
	}
	sugar.Infow("created", "id", created.ID, "name", created.Name)

	if _, err := wait[string](items.Rate(created.ID, &example.Rating{Stars: 5, Comment: "great mug"})); err != nil {
		sugar.Fatalf("Rate failed: %v", err)
	}

	photo := filepath.Join(os.TempDir(), "mug.txt")
	if err := os.WriteFile(photo, []byte("not really a photo"), 0600); err != nil {
		sugar.Fatalf("failed to write photo: %v", err)
	}
	defer os.Remove(photo)
	upload, err := wait[example.Upload](items.UploadPhoto(created.ID, magnet.Files{"photo": photo}))
	if err != nil {
		sugar.Fatalf("UploadPhoto failed: %v", err)
	}
	sugar.Infow("uploaded", "files", upload.Files)

	res, err := wait[example.SearchResult](items.Search("mug", 10, map[string]string{"X-Echo": "hi"}))
	if err != nil {
		sugar.Fatalf("Search failed: %v", err)
	}
	for _, item := range res.Items {
		fmt.Printf("%d\t%s\t%.2f\n", item.ID, item.Name, item.Price)
	}
}
