package magnet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starius/magnet/errors"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/goleak"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type outcome[T any] struct {
	statusCode int
	value      T
	offline    bool
	err        error
}

func execute[T any](t *testing.T, call *Call) outcome[T] {
	t.Helper()
	ch := make(chan outcome[T], 1)
	require.NoError(t, Execute(call, CallbackFuncs[T]{
		OnSuccess: func(statusCode int, value T) { ch <- outcome[T]{statusCode: statusCode, value: value} },
		OnOffline: func() { ch <- outcome[T]{offline: true} },
		OnFailure: func(err error) { ch <- outcome[T]{err: err} },
	}))
	select {
	case res := <-ch:
		return res
	case <-time.After(10 * time.Second):
		t.Fatalf("callback was not called")
		return outcome[T]{}
	}
}

type user struct {
	ID   int    `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

var usersAPI = &Service{
	Name: "Users",
	Methods: []*MethodDecl{
		Method("Get", []Annotation{GET("/users/{id}")}, Param("id", "int", Path("id"))),
		Method("Text", []Annotation{GET("/text")}),
		Method("Echo", []Annotation{POST("/echo")},
			Param("q", "string", Query("q")),
			Param("headers", "map[string]string", HeaderMap()),
			Param("user", "*user", Body()),
		),
		Method("Form", []Annotation{POST("/form")}, Param("fields", "map[string]string", FormMap())),
		Method("Upload", []Annotation{POST("/upload")}, Param("files", "Files", Part())),
		Method("Slow", []Annotation{GET("/slow")}),
		Method("Missing", []Annotation{DELETE("/missing")}),
		Method("Proto", []Annotation{PUT("/proto")}, Param("value", "*wrapperspb.StringValue", Body())),
	},
}

type echo struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

func newUsersServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		u := user{Name: "user " + r.PathValue("id")}
		fmt.Sscan(r.PathValue("id"), &u.ID)
		if r.Header.Get("Accept") == "application/msgpack" {
			data, _ := msgpack.Marshal(u)
			_, _ = w.Write(data)
			return
		}
		_ = json.NewEncoder(w).Encode(u)
	})
	mux.HandleFunc("GET /text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not": "decoded"}`)
	})
	echoHandler := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		e := echo{
			Method:  r.Method,
			URL:     r.URL.String(),
			Headers: make(map[string]string),
			Body:    string(body),
		}
		for name := range r.Header {
			e.Headers[name] = r.Header.Get(name)
		}
		_ = json.NewEncoder(w).Encode(e)
	}
	mux.HandleFunc("POST /echo", echoHandler)
	mux.HandleFunc("POST /form", echoHandler)
	mux.HandleFunc("PUT /proto", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(bytes.ToUpper(body))
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		reader, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		files := make(map[string]string)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(part)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			files[part.FormName()+"/"+part.FileName()] = string(data)
		}
		_ = json.NewEncoder(w).Encode(files)
	})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	mux.HandleFunc("DELETE /missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "no such thing"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	return server
}

func newUsersStub(t *testing.T, baseURL string, opts ...Option) *Stub {
	t.Helper()
	client, err := NewClient(baseURL, append([]Option{ErrorLogger(t.Logf)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	stub, err := client.Create(usersAPI)
	require.NoError(t, err)
	return stub
}

func TestExecuteGet(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	res := execute[user](t, stub.Invoke("Get", 7))
	require.NoError(t, res.err)
	require.Equal(t, http.StatusOK, res.statusCode)
	require.Equal(t, user{ID: 7, Name: "user 7"}, res.value)

	ptr := execute[*user](t, stub.Invoke("Get", 8))
	require.NoError(t, ptr.err)
	require.Equal(t, &user{ID: 8, Name: "user 8"}, ptr.value)

	raw := execute[string](t, stub.Invoke("Get", 9))
	require.NoError(t, raw.err)
	require.Equal(t, `{"id":9,"name":"user 9"}`+"\n", raw.value)
}

func TestExecuteRawString(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	res := execute[string](t, stub.Invoke("Text"))
	require.NoError(t, res.err)
	require.Equal(t, `{"not": "decoded"}`, res.value)
}

func TestExecuteEcho(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL, RequestID("X-Request-Id"))

	res := execute[echo](t, stub.Invoke("Echo", "a b", map[string]string{"X-Token": "secret"}, &user{ID: 1, Name: "ann"}))
	require.NoError(t, res.err)
	require.Equal(t, http.MethodPost, res.value.Method)
	require.Equal(t, "/echo?q=a%20b", res.value.URL)
	require.Equal(t, `{"id":1,"name":"ann"}`, res.value.Body)
	require.Equal(t, "application/json", res.value.Headers["Content-Type"])
	require.Equal(t, "secret", res.value.Headers["X-Token"])
	require.Len(t, res.value.Headers["X-Request-Id"], 36)

	// Explicit headers override the generated ones.
	res = execute[echo](t, stub.Invoke("Echo", "", map[string]string{"X-Request-Id": "mine", "Content-Type": "text/plain"}, nil))
	require.NoError(t, res.err)
	require.Equal(t, "/echo?q=", res.value.URL)
	require.Equal(t, "null", res.value.Body)
	require.Equal(t, "mine", res.value.Headers["X-Request-Id"])
	require.Equal(t, "text/plain", res.value.Headers["Content-Type"])
}

func TestExecuteForm(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	res := execute[echo](t, stub.Invoke("Form", map[string]string{"b": "2", "a": "x y"}))
	require.NoError(t, res.err)
	require.Equal(t, "a=x%20y&b=2", res.value.Body)
	require.Equal(t, "application/x-www-form-urlencoded", res.value.Headers["Content-Type"])
}

func TestExecuteUpload(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	dir := t.TempDir()
	big := make([]byte, 3*chunkSize+17)
	for i := range big {
		big[i] = 'a' + byte(i%26)
	}
	bigPath := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(bigPath, big, 0600))
	smallPath := filepath.Join(dir, "small.txt")
	require.NoError(t, os.WriteFile(smallPath, []byte("hello"), 0600))

	res := execute[map[string]string](t, stub.Invoke("Upload", Files{"big": bigPath, "small": smallPath}))
	require.NoError(t, res.err)
	require.Equal(t, map[string]string{
		"big/big.bin":     string(big),
		"small/small.txt": "hello",
	}, res.value)

	f, err := os.Open(smallPath)
	require.NoError(t, err)
	defer f.Close()
	res = execute[map[string]string](t, stub.Invoke("Upload", map[string]*os.File{"f": f}))
	require.NoError(t, res.err)
	require.Equal(t, map[string]string{"f/small.txt": "hello"}, res.value)

	res = execute[map[string]string](t, stub.Invoke("Upload", Files{"gone": filepath.Join(dir, "gone.txt")}))
	require.Error(t, res.err)
	require.False(t, res.offline)
}

func TestExecuteStatusError(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	res := execute[string](t, stub.Invoke("Missing"))
	var statusErr *StatusError
	require.ErrorAs(t, res.err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, "no such thing", statusErr.Message)
	require.Equal(t, http.StatusNotFound, statusErr.HttpCode())
	require.Contains(t, statusErr.Error(), "no such thing")
}

func TestExecuteTimeoutIsOffline(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL, ReadTimeout(50*time.Millisecond))

	res := execute[string](t, stub.Invoke("Slow"))
	require.NoError(t, res.err)
	require.True(t, res.offline)
}

func TestExecuteUnknownHostIsOffline(t *testing.T) {
	stub := newUsersStub(t, "http://magnet-test.invalid")

	res := execute[string](t, stub.Invoke("Text"))
	require.NoError(t, res.err)
	require.True(t, res.offline)
}

func TestExecuteConnectionRefusedFails(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	stub := newUsersStub(t, url)
	res := execute[string](t, stub.Invoke("Text"))
	require.Error(t, res.err)
	require.False(t, res.offline)
	require.Equal(t, codes.Unavailable, errors.Code(res.err))
}

func TestExecuteBindErrorsAreSynchronous(t *testing.T) {
	stub := newUsersStub(t, "http://api.test")

	cases := []struct {
		name    string
		call    *Call
		wantErr string
	}{
		{name: "too few arguments", call: stub.Invoke("Get"), wantErr: "argument count does not match"},
		{name: "too many arguments", call: stub.Invoke("Get", 1, 2), wantErr: "argument count does not match"},
		{name: "nil header map", call: stub.Invoke("Echo", "q", nil, nil), wantErr: "nil passed as map"},
		{name: "empty form", call: stub.Invoke("Form", map[string]string{"a": ""}), wantErr: "empty value"},
		{name: "no files", call: stub.Invoke("Upload", Files{}), wantErr: "multipart does not contain any file"},
		{name: "unknown method", call: stub.Invoke("Nope"), wantErr: "method Users.Nope is not declared"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var got error
			called := 0
			require.NoError(t, Execute(tc.call, CallbackFuncs[string]{
				OnSuccess: func(int, string) { called++ },
				OnOffline: func() { called++ },
				OnFailure: func(err error) {
					called++
					got = err
				},
			}))
			require.Equal(t, 1, called)
			require.Error(t, got)
			require.Contains(t, got.Error(), tc.wantErr)
		})
	}
}

func TestExecuteArgumentErrorCode(t *testing.T) {
	stub := newUsersStub(t, "http://api.test")

	res := execute[string](t, stub.Invoke("Get", 1, 2))
	require.Equal(t, codes.InvalidArgument, errors.Code(res.err))

	res = execute[string](t, stub.Invoke("Nope"))
	require.Equal(t, codes.NotFound, errors.Code(res.err))
}

func TestExecuteTwice(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	call := stub.Invoke("Text")
	res := execute[string](t, call)
	require.NoError(t, res.err)

	err := Execute(call, CallbackFuncs[string]{})
	require.ErrorIs(t, err, ErrAlreadyExecuted)
	require.Equal(t, codes.FailedPrecondition, errors.Code(err))
}

func TestExecuteAfterClose(t *testing.T) {
	client, err := NewClient("http://api.test")
	require.NoError(t, err)
	stub, err := client.Create(usersAPI)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	res := execute[string](t, stub.Invoke("Text"))
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "client is closed")
}

func TestExecuteCloseWaits(t *testing.T) {
	server := newUsersServer(t)
	client, err := NewClient(server.URL, ErrorLogger(t.Logf), ReadTimeout(100*time.Millisecond))
	require.NoError(t, err)
	stub, err := client.Create(usersAPI)
	require.NoError(t, err)

	done := make(chan struct{})
	require.NoError(t, Execute(stub.Invoke("Slow"), CallbackFuncs[string]{
		OnOffline: func() { close(done) },
	}))
	require.NoError(t, client.Close())

	select {
	case <-done:
	default:
		t.Fatalf("Close returned before the callback")
	}
}

func TestExecuteMsgpack(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL, WithCodec(MsgpackCodec{}))

	// The server switches to msgpack on the Accept header.
	res := execute[user](t, withAccept(t, stub, "Get", "application/msgpack", 3))
	require.NoError(t, res.err)
	require.Equal(t, user{ID: 3, Name: "user 3"}, res.value)
}

// withAccept invokes method of a service copy whose parameters are
// extended with an Accept header map.
func withAccept(t *testing.T, stub *Stub, method, accept string, args ...any) *Call {
	t.Helper()
	decl := stub.methods[method]
	params := append([]ParamDecl{}, decl.Params...)
	params = append(params, Param("headers", "map[string]string", HeaderMap()))
	service := &Service{
		Name:    stub.service + "WithAccept",
		Methods: []*MethodDecl{Method(decl.Name, decl.Annotations, params...)},
	}
	extended, err := stub.client.Create(service)
	require.NoError(t, err)
	return extended.Invoke(method, append(args, map[string]string{"Accept": accept})...)
}

func TestExecuteDecodeError(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	res := execute[[]int](t, stub.Invoke("Text"))
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "failed to decode response")
	require.Equal(t, codes.Internal, errors.Code(res.err))
}

func TestExecuteProto(t *testing.T) {
	server := newUsersServer(t)
	stub := newUsersStub(t, server.URL)

	res := execute[*wrapperspb.StringValue](t, stub.Invoke("Proto", wrapperspb.String("hi")))
	require.NoError(t, res.err)
	require.Equal(t, "HI", res.value.GetValue())
}

func TestDebug(t *testing.T) {
	server := newUsersServer(t)
	var log bytes.Buffer
	stub := newUsersStub(t, server.URL, Debug(&log))

	res := execute[user](t, stub.Invoke("Get", 5))
	require.NoError(t, res.err)
	require.Contains(t, log.String(), "=== client request 1 ===")
	require.Contains(t, log.String(), "curl -X 'GET'")
	require.Contains(t, log.String(), server.URL+"/users/5")
	require.Contains(t, log.String(), `"name":"user 5"`)
}

func TestDescribe(t *testing.T) {
	client, err := NewClient("http://api.test")
	require.NoError(t, err)
	defer client.Close()

	desc, err := client.Describe(usersAPI, "Upload")
	require.NoError(t, err)
	require.Equal(t, "Users.Upload", desc.Key().String())
	require.True(t, desc.HasMultipart())

	again, err := client.Describe(usersAPI, "Upload")
	require.NoError(t, err)
	require.Same(t, desc, again)

	_, err = client.Describe(usersAPI, "Nope")
	require.Equal(t, codes.NotFound, errors.Code(err))
}

func TestCreateErrors(t *testing.T) {
	client, err := NewClient("http://api.test")
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Create(nil)
	require.Equal(t, codes.InvalidArgument, errors.Code(err))

	_, err = client.Create(&Service{
		Name: "Broken",
		Methods: []*MethodDecl{
			Method("A", []Annotation{GET("/a")}, Param("x", "int")),
			Method("B", []Annotation{GET("/b")}, Param("y", "int", Query("y"))),
			Method("C", []Annotation{GET("/c")}, Param("z", "int", MustParseAnnotation("Header z"))),
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "method Broken.A")
	require.Contains(t, err.Error(), "method Broken.C")
	require.False(t, strings.Contains(err.Error(), "Broken.B"))
}

func TestExecuteStalledBodyIsOffline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = io.WriteString(w, `{"id":`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	stub := newUsersStub(t, server.URL, ReadTimeout(100*time.Millisecond))

	started := time.Now()
	res := execute[user](t, stub.Invoke("Get", 1))
	require.NoError(t, res.err)
	require.True(t, res.offline)
	require.Less(t, time.Since(started), 5*time.Second)
}

func TestExecuteSlowBodyWithinReadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range []string{`{"id":`, `4,`, `"name":`, `"slow"`, `}`} {
			_, _ = io.WriteString(w, part)
			w.(http.Flusher).Flush()
			time.Sleep(40 * time.Millisecond)
		}
	}))
	t.Cleanup(server.Close)
	stub := newUsersStub(t, server.URL, ReadTimeout(300*time.Millisecond))

	// The whole body takes longer than one read timeout, each read does not.
	res := execute[user](t, stub.Invoke("Get", 4))
	require.NoError(t, res.err)
	require.Equal(t, user{ID: 4, Name: "slow"}, res.value)
}

func TestCreateServicesWithSameName(t *testing.T) {
	client, err := NewClient("http://api.test")
	require.NoError(t, err)
	defer client.Close()

	first, err := client.Create(&Service{Name: "S", Methods: []*MethodDecl{
		Method("Get", []Annotation{GET("/a/{id}")}, Param("id", "int", Path("id"))),
	}})
	require.NoError(t, err)
	second, err := client.Create(&Service{Name: "S", Methods: []*MethodDecl{
		Method("Get", []Annotation{GET("/b")}),
	}})
	require.NoError(t, err)

	desc := first.Invoke("Get", 1).Descriptor()
	require.Equal(t, "/a/{id}", desc.PathTemplate())
	require.Equal(t, 1, desc.NumParams())

	desc = second.Invoke("Get").Descriptor()
	require.Equal(t, "/b", desc.PathTemplate())
	require.Equal(t, 0, desc.NumParams())
	require.Equal(t, "S.Get", desc.Key().String())
}
