package main

import (
	"log"
	"net/http"

	"github.com/starius/magnet/example"
)

func main() {
	service := example.NewItemService()
	log.Fatal(http.ListenAndServe(":8080", service.Handler()))
}
