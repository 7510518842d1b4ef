package repositories

import (
	"strconv"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Records are stored as protobuf Struct messages so the schema can evolve
// without generated code. Times are kept as RFC 3339 strings in UTC, and ids as
// decimal strings since a Struct number is a float64 and cannot hold every int64.
type record map[string]*structpb.Value

func marshalRecord(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func unmarshalRecord(data []byte) (record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.GetFields(), nil
}

// Int reads an id. Records written before ids were strings hold a number.
func (r record) Int(key string) int64 {
	v := r[key]
	if _, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		n, err := strconv.ParseInt(v.GetStringValue(), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return int64(v.GetNumberValue())
}

func (r record) Str(key string) string {
	return r[key].GetStringValue()
}

func (r record) Bool(key string) bool {
	return r[key].GetBoolValue()
}

func (r record) Time(key string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Str(key))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
