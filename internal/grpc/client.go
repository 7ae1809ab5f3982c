package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/library"
	"libraryCatalog/models"
)

// Client calls library.v1.LibraryService using the JSON codec.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

// Dial opens a plaintext connection to target.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	return grpc.NewClient(target, opts...)
}

// NewClient wraps cc. A non-empty token is sent as a bearer credential on every call.
func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.cc.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName))
}

func call[T any](ctx context.Context, c *Client, method string, in any) (*T, error) {
	out := new(T)
	if err := c.invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Checkout(ctx context.Context, bookID string) (*models.Loan, error) {
	return call[models.Loan](ctx, c, MethodCheckout, &CheckoutRequest{BookID: bookID})
}

func (c *Client) Return(ctx context.Context, loanID string) (*models.Loan, error) {
	return call[models.Loan](ctx, c, MethodReturn, &ReturnRequest{LoanID: loanID})
}

func (c *Client) ListLoans(ctx context.Context, req *ListLoansRequest) (*library.LoanPage, error) {
	return call[library.LoanPage](ctx, c, MethodListLoans, req)
}

func (c *Client) ListBooks(ctx context.Context, req *ListBooksRequest) (*library.BookPage, error) {
	return call[library.BookPage](ctx, c, MethodListBooks, req)
}

func (c *Client) GetBook(ctx context.Context, id string) (*models.Book, error) {
	return call[models.Book](ctx, c, MethodGetBook, &GetBookRequest{ID: id})
}

func (c *Client) Search(ctx context.Context, query string, topK int) (*ai.SearchResult, error) {
	return call[ai.SearchResult](ctx, c, MethodSearch, &SearchRequest{Query: query, TopK: topK})
}

func (c *Client) Ask(ctx context.Context, question string) (*ai.AskResult, error) {
	return call[ai.AskResult](ctx, c, MethodAsk, &AskRequest{Question: question})
}

func (c *Client) Enrich(ctx context.Context, req *EnrichRequest) (*ai.EnrichResult, error) {
	return call[ai.EnrichResult](ctx, c, MethodEnrich, req)
}
