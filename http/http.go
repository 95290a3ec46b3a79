// Package http exposes the SDK as a JSON gateway. Reads are served as GET
// requests, mutations as POST requests executed by the gateway's own
// account or relay.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sellout-xyz/sellout/go/checkin"
	"github.com/sellout-xyz/sellout/go/contracts/boxoffice"
	"github.com/sellout-xyz/sellout/go/contracts/show"
	"github.com/sellout-xyz/sellout/go/evm"
)

// SDK is what the gateway needs from the client. *client.Client satisfies it.
type SDK interface {
	Chain() *evm.ChainContext
	Show() (*show.Contract, error)
	BoxOffice() (*boxoffice.Contract, error)
	CheckIn(proxy string, opts ...checkin.Option) (*checkin.Verifier, error)
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the access and error logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver sets the table served by the network endpoints. Defaults to
// the built-in deployments.
func WithResolver(resolver *evm.Resolver) Option {
	return func(s *Server) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithRegistry sets the registry metrics are registered to and served from
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// Server is the gateway
type Server struct {
	sdk      SDK
	resolver *evm.Resolver
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
	engine   *gin.Engine

	// check-in verifiers keep replay state, one per ticket proxy
	mu        sync.Mutex
	verifiers map[common.Address]*checkin.Verifier
}

// NewServer creates the gateway over sdk
func NewServer(sdk SDK, opts ...Option) *Server {
	s := &Server{
		sdk:       sdk,
		resolver:  evm.NewResolver(nil),
		logger:    zap.NewNop(),
		verifiers: make(map[common.Address]*checkin.Verifier),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	s.logger = s.logger.Named("gateway")

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.metrics.instrument(), accessLog(s.logger))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.GET("/networks", s.listNetworks)
	v1.GET("/networks/:chainId/contracts", s.listContracts)

	shows := v1.Group("/shows", s.requireChain())
	shows.GET("/:showId", s.getShow)
	shows.GET("/:showId/organizers/:address", s.isOrganizer)
	shows.POST("", s.proposeShow)
	shows.POST("/:showId/cancel", s.cancelShow)

	v1.POST("/boxoffice/purchase", s.requireChain(), s.purchaseTickets)
	v1.POST("/checkin/verify", s.requireChain(), s.verifyCheckIn)

	s.engine = r
	return s
}

// Handler returns the gateway's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening",
			zap.String("addr", addr),
			zap.Uint64("chainId", s.sdk.Chain().ChainID()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) verifier(proxy common.Address) (*checkin.Verifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.verifiers[proxy]; ok {
		return v, nil
	}
	v, err := s.sdk.CheckIn(proxy.Hex())
	if err != nil {
		return nil, err
	}
	s.verifiers[proxy] = v
	return v, nil
}
