package example

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/starius/magnet/internal/shared"
)

// ItemService is an in-memory server side of the Items service.
type ItemService struct {
	mu      sync.Mutex
	items   map[int]*Item
	ratings map[int][]Rating
	nextID  int
}

func NewItemService() *ItemService {
	return &ItemService{
		items:   make(map[int]*Item),
		ratings: make(map[int][]Rating),
		nextID:  1,
	}
}

// Handler serves the routes declared by ItemsAPI.
func (s *ItemService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", s.getItem)
	mux.HandleFunc("GET /items", s.search)
	mux.HandleFunc("POST /items", s.createItem)
	mux.HandleFunc("PUT /items/{id}", s.updateItem)
	mux.HandleFunc("DELETE /items/{id}", s.deleteItem)
	mux.HandleFunc("POST /items/{id}/ratings", s.rate)
	mux.HandleFunc("POST /items/{id}/photos", s.uploadPhoto)
	return mux
}

func jsonError(w http.ResponseWriter, code int, format string, args ...interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(shared.ErrorMessage{Error: fmt.Sprintf(format, args...)})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *ItemService) itemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "bad item id %q", r.PathValue("id"))
		return 0, false
	}
	if _, has := s.items[id]; !has {
		jsonError(w, http.StatusNotFound, "item %d not found", id)
		return 0, false
	}
	return id, true
}

func (s *ItemService) getItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.items[id])
}

func (s *ItemService) search(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := r.URL.Query().Get("q")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		jsonError(w, http.StatusBadRequest, "bad limit %q", r.URL.Query().Get("limit"))
		return
	}
	ids := make([]int, 0, len(s.items))
	for id, item := range s.items {
		if strings.Contains(item.Name, query) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	res := &SearchResult{Query: query, Items: []*Item{}}
	for _, id := range ids {
		res.Items = append(res.Items, s.items[id])
	}
	if v := r.Header.Get("X-Echo"); v != "" {
		w.Header().Set("X-Echo", v)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *ItemService) createItem(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		jsonError(w, http.StatusBadRequest, "bad item: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.nextID
	s.nextID++
	s.items[item.ID] = &item
	writeJSON(w, http.StatusCreated, &item)
}

func (s *ItemService) updateItem(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		jsonError(w, http.StatusBadRequest, "bad item: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	item.ID = id
	s.items[id] = &item
	writeJSON(w, http.StatusOK, &item)
}

func (s *ItemService) deleteItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	delete(s.items, id)
	delete(s.ratings, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *ItemService) rate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, http.StatusBadRequest, "bad form: %v", err)
		return
	}
	stars, err := strconv.Atoi(r.PostForm.Get("stars"))
	if err != nil || stars < 1 || stars > 5 {
		jsonError(w, http.StatusBadRequest, "bad stars %q", r.PostForm.Get("stars"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	s.ratings[id] = append(s.ratings[id], Rating{Stars: stars, Comment: r.PostForm.Get("comment")})
	writeJSON(w, http.StatusOK, s.ratings[id])
}

func (s *ItemService) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "bad multipart: %v", err)
		return
	}
	upload := &Upload{Files: make(map[string]int)}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			jsonError(w, http.StatusBadRequest, "bad multipart: %v", err)
			return
		}
		n, err := io.Copy(io.Discard, part)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "bad part: %v", err)
			return
		}
		upload.Files[part.FormName()+"/"+part.FileName()] = int(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.itemID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, upload)
}
