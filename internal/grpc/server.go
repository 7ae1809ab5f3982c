package grpcserver

import (
	"context"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/apperr"
	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/library"
	"libraryCatalog/models"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// publicMethods may be called without a bearer token.
var publicMethods = []string{healthCheckMethod, MethodListBooks, MethodGetBook, MethodSearch}

// Server implements LibraryServiceServer on top of the library service.
type Server struct {
	Svc *library.Service
}

func principal(ctx context.Context) *auth.Principal {
	p, _ := auth.FromContext(ctx)
	return p
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(field + " must be a valid UUID")
	}
	return id, nil
}

// Checkout lends a book to the caller.
func (s *Server) Checkout(ctx context.Context, req *CheckoutRequest) (*models.Loan, error) {
	id, err := parseID(req.BookID, "book_id")
	if err != nil {
		return nil, err
	}
	return s.Svc.Checkout(ctx, principal(ctx), id)
}

// Return closes a loan.
func (s *Server) Return(ctx context.Context, req *ReturnRequest) (*models.Loan, error) {
	id, err := parseID(req.LoanID, "loan_id")
	if err != nil {
		return nil, err
	}
	return s.Svc.Return(ctx, principal(ctx), id)
}

func (s *Server) ListLoans(ctx context.Context, req *ListLoansRequest) (*library.LoanPage, error) {
	return s.Svc.ListLoans(ctx, principal(ctx), library.Page{Page: req.Page, PageSize: req.PageSize})
}

func (s *Server) ListBooks(ctx context.Context, req *ListBooksRequest) (*library.BookPage, error) {
	return s.Svc.ListBooks(ctx, library.BookQuery{
		Q:      req.Q,
		Author: req.Author,
		Tag:    req.Tag,
		Status: req.Status,
		Page:   library.Page{Page: req.Page, PageSize: req.PageSize},
	})
}

func (s *Server) GetBook(ctx context.Context, req *GetBookRequest) (*models.Book, error) {
	id, err := parseID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	return s.Svc.GetBook(ctx, id)
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*ai.SearchResult, error) {
	res, err := s.Svc.Search(ctx, req.Query, req.TopK)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Server) Ask(ctx context.Context, req *AskRequest) (*ai.AskResult, error) {
	res, err := s.Svc.Ask(ctx, principal(ctx), req.Question)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Server) Enrich(ctx context.Context, req *EnrichRequest) (*ai.EnrichResult, error) {
	res, err := s.Svc.Enrich(ctx, principal(ctx), req.Title, req.Author, req.Description)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// NewServer builds a grpc.Server with the library and health services and the
// logging and auth interceptors installed.
func NewServer(svc *library.Service, authn *auth.Authenticator, log *logrus.Entry) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		NewUnaryLoggingInterceptor(log),
		auth.NewUnaryAuthInterceptor(authn, publicMethods...),
	))
	RegisterLibraryServiceServer(srv, &Server{Svc: svc})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// StartGRPC starts the gRPC server on addr and returns a shutdown function.
func StartGRPC(addr string, svc *library.Service, authn *auth.Authenticator, log *logrus.Entry) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewServer(svc, authn, log)
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server stopped")
		}
	}()
	log.WithField("address", lis.Addr().String()).Info("grpc server listening")

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
