package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/runger/searchpick/internal/search"
)

// DefaultRemoteTimeout bounds a single FetchItems call, covering both
// connection establishment and the RPC itself.
const DefaultRemoteTimeout = 2 * time.Second

// RemoteSource fetches item pages from an item server over a unix socket.
type RemoteSource struct {
	socketPath string
	timeout    time.Duration

	mu  sync.Mutex
	end int // Offset the server reported as the end of its data; -1 until then
}

// Compile-time check that RemoteSource implements search.Fetcher.
var _ search.Fetcher = (*RemoteSource)(nil)

// NewRemoteSource creates a source that connects to the item server socket.
// A non-positive timeout selects DefaultRemoteTimeout.
func NewRemoteSource(socketPath string, timeout time.Duration) *RemoteSource {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &RemoteSource{socketPath: socketPath, timeout: timeout, end: -1}
}

// Fetch calls the server's FetchItems RPC and returns sanitized items.
// An empty result means the server has nothing past offset.
// Once the server marks a page as the last one, offsets past it are
// answered locally with an empty page.
func (r *RemoteSource) Fetch(ctx context.Context, offset, limit int) ([]*search.Item, error) {
	r.mu.Lock()
	end := r.end
	r.mu.Unlock()
	if end >= 0 && offset >= end {
		return nil, nil
	}

	p, err := r.fetchPage(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if p.AtEnd {
		r.mu.Lock()
		r.end = offset + len(p.Items)
		r.mu.Unlock()
	}
	return p.Items, nil
}

// Load fetches the first n items, for binding the initial list. A
// non-positive n fetches one default-sized page.
func (r *RemoteSource) Load(ctx context.Context, n int) ([]*search.Item, error) {
	if n <= 0 {
		n = search.DefaultPageSize
	}
	return r.Fetch(ctx, 0, n)
}

// Loader adapts Load to search.Loader with a fixed initial size.
func (r *RemoteSource) Loader(n int) search.Loader {
	return search.LoaderFunc(func(ctx context.Context) ([]*search.Item, error) {
		return r.Load(ctx, n)
	})
}

func (r *RemoteSource) fetchPage(ctx context.Context, offset, limit int) (page, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	conn, err := grpc.NewClient(
		"unix://"+r.socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return page{}, fmt.Errorf("remote source: dial: %w", err)
	}
	defer conn.Close()

	req, err := encodeRequest(offset, limit)
	if err != nil {
		return page{}, fmt.Errorf("remote source: encode: %w", err)
	}

	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, fetchItemsMethod, req, resp); err != nil {
		return page{}, fmt.Errorf("remote source: rpc: %w", err)
	}
	return decodePage(resp), nil
}
