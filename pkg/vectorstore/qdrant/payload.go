package qdrant

import (
	"ai-docsearch-be/pkg/store"

	pb "github.com/qdrant/go-client/qdrant"
)

// splitPayload pulls the page content and metadata object out of a point payload.
func splitPayload(payload map[string]*pb.Value) (string, store.Metadata) {
	content := payload[contentKey].GetStringValue()

	meta := store.Metadata{}
	if s := payload[metadataKey].GetStructValue(); s != nil {
		for k, v := range s.GetFields() {
			meta[k] = toInterface(v)
		}
	}
	return content, meta
}

func toInterface(v *pb.Value) interface{} {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_StructValue:
		out := make(map[string]interface{}, len(kind.StructValue.GetFields()))
		for k, f := range kind.StructValue.GetFields() {
			out[k] = toInterface(f)
		}
		return out
	case *pb.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]interface{}, len(values))
		for i, item := range values {
			out[i] = toInterface(item)
		}
		return out
	default:
		return nil
	}
}
