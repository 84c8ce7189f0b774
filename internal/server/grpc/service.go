package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct messages, so clients need no
// generated stubs: conn.Invoke(ctx, "/"+ServiceName+"/ListFiles", req, resp).
const ServiceName = "classdocs.v1.ClassDocs"

const (
	MethodRegister        = "Register"
	MethodCreateClassroom = "CreateClassroom"
	MethodJoinClassroom   = "JoinClassroom"
	MethodGetClassroom    = "GetClassroom"
	MethodDeleteClassroom = "DeleteClassroom"
	MethodUploadFile      = "UploadFile"
	MethodListFiles       = "ListFiles"
	MethodGetFile         = "GetFile"
	MethodRenameFile      = "RenameFile"
	MethodDeleteFile      = "DeleteFile"
	MethodPublishFile     = "PublishFile"
	MethodPing            = "Ping"
)

// FullMethod returns the path gRPC uses for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// publicMethods are served without an access token.
var publicMethods = map[string]struct{}{
	FullMethod(MethodRegister): {},
	FullMethod(MethodPing):     {},
}

type handlerFunc func(s *GRPCServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// classDocsServer only exists so grpc.ServiceDesc has a handler type to check.
type classDocsServer interface {
	classDocs()
}

func (s *GRPCServer) classDocs() {}

func unary(name string, h handlerFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*GRPCServer)
			if interceptor == nil {
				return h(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return h(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*classDocsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, (*GRPCServer).Register),
		unary(MethodCreateClassroom, (*GRPCServer).CreateClassroom),
		unary(MethodJoinClassroom, (*GRPCServer).JoinClassroom),
		unary(MethodGetClassroom, (*GRPCServer).GetClassroom),
		unary(MethodDeleteClassroom, (*GRPCServer).DeleteClassroom),
		unary(MethodUploadFile, (*GRPCServer).UploadFile),
		unary(MethodListFiles, (*GRPCServer).ListFiles),
		unary(MethodGetFile, (*GRPCServer).GetFile),
		unary(MethodRenameFile, (*GRPCServer).RenameFile),
		unary(MethodDeleteFile, (*GRPCServer).DeleteFile),
		unary(MethodPublishFile, (*GRPCServer).PublishFile),
		unary(MethodPing, (*GRPCServer).Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "classdocs.v1",
}
