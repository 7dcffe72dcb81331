package utils

import (
	"encoding/json"
	"fmt"

	"github.com/Luismorlan/pow_ledger/model"
	"google.golang.org/protobuf/types/known/structpb"
)

// NormalizeRecord round trips the record through a protobuf Struct. Numbers become
// float64 and nested values become plain maps and slices, which is exactly what a peer
// decoding the record from JSON ends up with, so both sides hash identical values.
// Values that have no JSON form are rejected.
func NormalizeRecord(r model.Record) (model.Record, error) {
	if r == nil {
		return nil, fmt.Errorf("record is nil")
	}
	s, err := structpb.NewStruct(r)
	if err != nil {
		return nil, fmt.Errorf("record is not representable: %w", err)
	}
	return model.Record(s.AsMap()), nil
}

// NormalizeRecords normalizes every record, failing on the first bad one.
func NormalizeRecords(rs []model.Record) ([]model.Record, error) {
	out := make([]model.Record, 0, len(rs))
	for i, r := range rs {
		n, err := NormalizeRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// EncodeRecord returns the JSON a record contributes to a block digest. It fails on values
// JSON has no form for, such as NaN.
func EncodeRecord(r model.Record) ([]byte, error) {
	return json.Marshal(r)
}
