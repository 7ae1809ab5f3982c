package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/library"
	"libraryCatalog/models"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "library.v1.LibraryService"

// Full method names, as seen by interceptors.
const (
	MethodCheckout  = "/" + ServiceName + "/Checkout"
	MethodReturn    = "/" + ServiceName + "/Return"
	MethodListLoans = "/" + ServiceName + "/ListLoans"
	MethodListBooks = "/" + ServiceName + "/ListBooks"
	MethodGetBook   = "/" + ServiceName + "/GetBook"
	MethodSearch    = "/" + ServiceName + "/Search"
	MethodAsk       = "/" + ServiceName + "/Ask"
	MethodEnrich    = "/" + ServiceName + "/Enrich"
)

type CheckoutRequest struct {
	BookID string `json:"book_id"`
}

type ReturnRequest struct {
	LoanID string `json:"loan_id"`
}

type ListLoansRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ListBooksRequest struct {
	Q        string `json:"q"`
	Author   string `json:"author"`
	Tag      string `json:"tag"`
	Status   string `json:"status"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type GetBookRequest struct {
	ID string `json:"id"`
}

type SearchRequest struct {
	Query string `json:"q"`
	TopK  int    `json:"top_k"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type EnrichRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description *string `json:"description"`
}

// LibraryServiceServer is the server API for library.v1.LibraryService.
type LibraryServiceServer interface {
	Checkout(context.Context, *CheckoutRequest) (*models.Loan, error)
	Return(context.Context, *ReturnRequest) (*models.Loan, error)
	ListLoans(context.Context, *ListLoansRequest) (*library.LoanPage, error)
	ListBooks(context.Context, *ListBooksRequest) (*library.BookPage, error)
	GetBook(context.Context, *GetBookRequest) (*models.Book, error)
	Search(context.Context, *SearchRequest) (*ai.SearchResult, error)
	Ask(context.Context, *AskRequest) (*ai.AskResult, error)
	Enrich(context.Context, *EnrichRequest) (*ai.EnrichResult, error)
}

// RegisterLibraryServiceServer registers srv on s.
func RegisterLibraryServiceServer(s grpc.ServiceRegistrar, srv LibraryServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method handler that decodes Req, runs the interceptor chain and calls call.
func unary[Req any, Resp any](fullMethod string, call func(LibraryServiceServer, context.Context, *Req) (Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LibraryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LibraryServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes library.v1.LibraryService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LibraryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Checkout", Handler: unary(MethodCheckout, LibraryServiceServer.Checkout)},
		{MethodName: "Return", Handler: unary(MethodReturn, LibraryServiceServer.Return)},
		{MethodName: "ListLoans", Handler: unary(MethodListLoans, LibraryServiceServer.ListLoans)},
		{MethodName: "ListBooks", Handler: unary(MethodListBooks, LibraryServiceServer.ListBooks)},
		{MethodName: "GetBook", Handler: unary(MethodGetBook, LibraryServiceServer.GetBook)},
		{MethodName: "Search", Handler: unary(MethodSearch, LibraryServiceServer.Search)},
		{MethodName: "Ask", Handler: unary(MethodAsk, LibraryServiceServer.Ask)},
		{MethodName: "Enrich", Handler: unary(MethodEnrich, LibraryServiceServer.Enrich)},
	},
	Streams: []grpc.StreamDesc{},
}
