package magnet

import (
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/starius/magnet/debugclient"
	"github.com/starius/magnet/errors"
)

// Client turns declarative services into stubs and executes their calls.
type Client struct {
	config     *Config
	client     HttpClient
	dispatcher *dispatcher

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewClient creates new instance of client. Relative paths of methods are
// appended to baseURL to generate final URL used by HTTP client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	config := NewDefaultConfig()
	config.BaseURL = baseURL
	return New(config, opts...)
}

// New creates a client from config, e.g. one returned by ConfigFromEnv.
// Options are applied on top of config.
func New(config *Config, opts ...Option) (*Client, error) {
	c := *config
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.errorf == nil {
		c.errorf = func(string, ...interface{}) {}
	}
	if c.codec == nil {
		c.codec = DefaultCodec
	}

	var client HttpClient
	if c.client != nil {
		client = c.client
	} else {
		client = newHttpClient(c.ConnectTimeout, c.ReadTimeout)
	}
	if c.debug != nil {
		debugClient, err := debugclient.New(client, c.debug)
		if err != nil {
			return nil, fmt.Errorf("failed to create debug client: %w", err)
		}
		client = debugClient
	}

	result := &Client{
		config: &c,
		client: client,
	}
	result.dispatcher = newDispatcher(result.compile)
	return result, nil
}

func (c *Client) compile(key MethodKey, decl *MethodDecl) (*MethodDescriptor, error) {
	return compileMethod(key, c.config.BaseURL, c.config.codec, decl)
}

// Create validates every method of service, compiling and caching its
// descriptor, and returns a stub for calling them. Any compile error fails
// the whole service.
func (c *Client) Create(service *Service) (*Stub, error) {
	if err := validateService(service); err != nil {
		return nil, errors.InvalidArgument("%w", err)
	}
	stub := &Stub{
		client:  c,
		service: service.Name,
		methods: make(map[string]*MethodDecl, len(service.Methods)),
	}
	var errs []error
	for _, m := range service.Methods {
		stub.methods[m.Name] = m
		if _, err := c.dispatcher.resolve(stub.key(m.Name), m); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) != 0 {
		return nil, stderrors.Join(errs...)
	}
	return stub, nil
}

// Describe returns the compiled descriptor of a method of service.
func (c *Client) Describe(service *Service, method string) (*MethodDescriptor, error) {
	for _, m := range service.Methods {
		if m.Name == method {
			return c.dispatcher.resolve(MethodKey{Service: service.Name, Method: method}, m)
		}
	}
	return nil, errors.NotFound("method %s.%s is not declared", service.Name, method)
}

// begin registers an in-flight call. It fails once Close has started.
func (c *Client) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return false
	}
	// Add(1) and Wait() must not be called in parallel.
	c.wg.Add(1)
	return true
}

// Close waits for in-flight calls to deliver their outcome and releases
// idle connections. Calls executed after Close fail.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.wg.Wait()
	c.client.CloseIdleConnections()

	if closer, ok := c.client.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}

	return nil
}

// Stub is the callable form of a Service bound to a Client.
// Generated adapters wrap a Stub with typed methods.
type Stub struct {
	client  *Client
	service string
	methods map[string]*MethodDecl
}

func (s *Stub) key(method string) MethodKey {
	return MethodKey{Service: s.service, Method: method}
}

// Invoke binds args to the named method and returns the pending call.
// Nothing is sent until the call is executed. Errors resolving the method
// are reported through the call's callback.
func (s *Stub) Invoke(method string, args ...any) *Call {
	decl, has := s.methods[method]
	if !has {
		return &Call{
			client: s.client,
			err:    errors.NotFound("method %s is not declared", s.key(method)),
		}
	}
	desc, err := s.client.dispatcher.resolve(s.key(method), decl)
	return &Call{
		client: s.client,
		desc:   desc,
		args:   args,
		err:    err,
	}
}
