package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MediaRef points at an uploaded file. Legacy documents stored a plain path
// string; newer ones store {url, storageId} so the remote object can be
// deleted later.
type MediaRef struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId,omitempty"`
}

// UnmarshalBSONValue accepts both string and document BSON types, allowing
// legacy documents to be decoded without failing the entire request.
func (m *MediaRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*m = MediaRef{}
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*m = MediaRef{URL: strings.TrimSpace(value)}
		return nil
	case bsontype.EmbeddedDocument:
		var doc struct {
			URL       string `bson:"url"`
			StorageID string `bson:"storageId"`
			PublicID  string `bson:"public_id"`
		}
		if err := bson.UnmarshalValue(t, data, &doc); err != nil {
			return err
		}
		m.URL = doc.URL
		m.StorageID = doc.StorageID
		if m.StorageID == "" {
			m.StorageID = doc.PublicID
		}
		return nil
	default:
		return fmt.Errorf("cannot decode %s into MediaRef", t)
	}
}

// MarshalBSONValue always stores the document form, keeping new writes
// consistent even when legacy documents used a string value.
func (m MediaRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(struct {
		URL       string `bson:"url"`
		StorageID string `bson:"storageId,omitempty"`
	}{URL: m.URL, StorageID: m.StorageID})
}

// IsZero reports whether the reference carries no file at all.
func (m MediaRef) IsZero() bool {
	return m.URL == "" && m.StorageID == ""
}
