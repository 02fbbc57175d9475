package source

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/runger/searchpick/internal/search"
)

// The item service is declared by hand over structpb messages:
//
//	FetchItems({offset, limit}) -> {items: [{id, sub_id, title, subtitle, logo}], at_end}
const (
	itemServiceName  = "searchpick.v1.ItemService"
	fetchItemsMethod = "/" + itemServiceName + "/FetchItems"
)

// itemServiceServer is the server-side contract of the item service.
type itemServiceServer interface {
	FetchItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var itemServiceDesc = grpc.ServiceDesc{
	ServiceName: itemServiceName,
	HandlerType: (*itemServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchItems", Handler: fetchItemsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "searchpick/v1/items",
}

func fetchItemsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(itemServiceServer).FetchItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fetchItemsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(itemServiceServer).FetchItems(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// page is the decoded FetchItems response.
type page struct {
	Items []*search.Item
	AtEnd bool
}

func encodeRequest(offset, limit int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"offset": offset,
		"limit":  limit,
	})
}

func decodeRequest(req *structpb.Struct) (offset, limit int, err error) {
	fields := req.GetFields()
	offset = int(fields["offset"].GetNumberValue())
	limit = int(fields["limit"].GetNumberValue())
	if offset < 0 || limit < 1 {
		return 0, 0, fmt.Errorf("offset must be >= 0 and limit >= 1 (got offset=%d limit=%d)", offset, limit)
	}
	return offset, limit, nil
}

// encodePage builds a response. Strings are forced to valid UTF-8 since
// protobuf refuses to marshal anything else.
func encodePage(items []*search.Item, atEnd bool) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(items))
	for _, it := range items {
		values = append(values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"id":       structpb.NewNumberValue(float64(it.ID)),
				"sub_id":   structpb.NewNumberValue(float64(it.SubID)),
				"title":    structpb.NewStringValue(ValidateUTF8(it.Title)),
				"subtitle": structpb.NewStringValue(ValidateUTF8(it.Subtitle)),
				"logo":     structpb.NewStringValue(ValidateUTF8(it.Logo)),
			},
		}))
	}
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"items":  structpb.NewListValue(&structpb.ListValue{Values: values}),
			"at_end": structpb.NewBoolValue(atEnd),
		},
	}
}

func decodePage(resp *structpb.Struct) page {
	fields := resp.GetFields()
	values := fields["items"].GetListValue().GetValues()
	items := make([]*search.Item, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		it := search.NewItem(int(f["id"].GetNumberValue()), CleanText(f["title"].GetStringValue()))
		it.SubID = int(f["sub_id"].GetNumberValue())
		it.Subtitle = CleanText(f["subtitle"].GetStringValue())
		it.Logo = f["logo"].GetStringValue()
		items = append(items, it)
	}
	return page{Items: items, AtEnd: fields["at_end"].GetBoolValue()}
}
