/*
Package magnet builds HTTP clients from declarative interfaces.

A declarative interface is a Service: a named list of methods, each carrying
an HTTP verb annotation with a relative path template, and, for every
parameter, one role annotation telling how the argument goes into the request.

	var ItemsAPI = &magnet.Service{
		Name: "Items",
		Methods: []*magnet.MethodDecl{
			magnet.Method("GetItem",
				[]magnet.Annotation{magnet.GET("/items/{id}")},
				magnet.Param("id", "int", magnet.Path("id")),
			),
			magnet.Method("Search",
				[]magnet.Annotation{magnet.GET("/items")},
				magnet.Param("q", "string", magnet.Query("q")),
				magnet.Param("headers", "map[string]string", magnet.HeaderMap()),
			),
			magnet.Method("CreateItem",
				[]magnet.Annotation{magnet.POST("/items")},
				magnet.Param("item", "*Item", magnet.Body()),
			),
		},
	}

Parameter roles:

  - Query(name) appends ?name=value (or &name=value) to the URL.
  - Path(name) replaces the {name} placeholder of the path template.
  - Body() sends the argument encoded by the codec (JSON by default).
  - HeaderMap() adds each entry of a map with string keys as a header.
  - FormMap() appends each entry of a map (or a struct with `form` tags)
    to the body as application/x-www-form-urlencoded fields.
  - Part() uploads the files of a magnet.Files map as multipart/form-data.

Names and values of query, path and form parameters are percent-encoded as
UTF-8; space is encoded as %20. Values are converted to text as is for
strings, with MarshalText for encoding.TextMarshaler and with fmt's %v
otherwise. A nil value is an empty string.

Now create the client and the stub:

	client, err := magnet.NewClient("http://api.example.com")
	if err != nil {
		panic(err)
	}
	defer client.Close()
	items, err := client.Create(ItemsAPI)
	if err != nil {
		panic(err) // A method of ItemsAPI is malformed.
	}

Create compiles every method of the service once and caches the result in the
client; later calls only look the compiled method up.

A call is made in two steps. Invoke captures the arguments of a method and
returns a pending Call. Execute binds them into a request, sends it from a
new goroutine and delivers the outcome to a callback:

	call := items.Invoke("GetItem", 7)
	err = magnet.Execute(call, magnet.CallbackFuncs[Item]{
		OnSuccess: func(statusCode int, item Item) { ... },
		OnOffline: func() { ... },
		OnFailure: func(err error) { ... },
	})

Exactly one of the three functions is called. Offline means the request
timed out or the host did not resolve; everything else that goes wrong,
including HTTP statuses >= 400, is a failure. Use string as the response
type to get the response body verbatim.

Instead of calling Invoke with method names, generate a typed adapter with
GenerateAdapter or the magnetgen command:

	type ItemsClient struct{ stub *magnet.Stub }

	func (c *ItemsClient) GetItem(id int) *magnet.Call {
		return c.stub.Invoke("GetItem", id)
	}

Services can also be loaded from YAML with LoadServices and described as an
OpenAPI document with GenerateOpenAPI.
*/
package magnet
