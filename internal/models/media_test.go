package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

type mediaHolder struct {
	Avatar MediaRef `bson:"avatar"`
}

func TestMediaRefDecodesLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"avatar": "/uploads/default-avatar.png"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var holder mediaHolder
	if err := bson.Unmarshal(raw, &holder); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if holder.Avatar.URL != "/uploads/default-avatar.png" {
		t.Fatalf("expected legacy path as URL, got %q", holder.Avatar.URL)
	}
	if holder.Avatar.StorageID != "" {
		t.Fatalf("legacy strings carry no storage id, got %q", holder.Avatar.StorageID)
	}
}

func TestMediaRefDecodesDocumentForm(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"avatar": bson.M{
		"url":       "https://cdn.example.com/a.webp",
		"storageId": "uploads/avatars/a.webp",
	}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var holder mediaHolder
	if err := bson.Unmarshal(raw, &holder); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if holder.Avatar.URL != "https://cdn.example.com/a.webp" {
		t.Fatalf("unexpected url: %q", holder.Avatar.URL)
	}
	if holder.Avatar.StorageID != "uploads/avatars/a.webp" {
		t.Fatalf("unexpected storage id: %q", holder.Avatar.StorageID)
	}
}

func TestMediaRefDecodesLegacyPublicID(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"avatar": bson.M{
		"url":       "https://cdn.example.com/b.jpg",
		"public_id": "avatars/b",
	}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var holder mediaHolder
	if err := bson.Unmarshal(raw, &holder); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if holder.Avatar.StorageID != "avatars/b" {
		t.Fatalf("expected public_id fallback, got %q", holder.Avatar.StorageID)
	}
}

func TestMediaRefDecodesNull(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"avatar": nil})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var holder mediaHolder
	if err := bson.Unmarshal(raw, &holder); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !holder.Avatar.IsZero() {
		t.Fatalf("expected zero ref for null, got %+v", holder.Avatar)
	}
}

func TestMediaRefMarshalsAsDocument(t *testing.T) {
	raw, err := bson.Marshal(mediaHolder{Avatar: MediaRef{URL: "/u.png", StorageID: "uploads/u.png"}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	avatar, ok := doc["avatar"].(bson.M)
	if !ok {
		t.Fatalf("expected avatar document, got %T", doc["avatar"])
	}
	if avatar["url"] != "/u.png" || avatar["storageId"] != "uploads/u.png" {
		t.Fatalf("unexpected avatar document: %v", avatar)
	}
}
