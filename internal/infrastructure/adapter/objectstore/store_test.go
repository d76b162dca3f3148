package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		folder, name, want string
	}{
		{"user_docs", "u1_id_front.jpg", "user_docs/u1_id_front.jpg"},
		{"/user_docs/", "u1_selfie.png", "user_docs/u1_selfie.png"},
		{"user_docs", "../../etc/passwd", "user_docs/passwd"},
		{"", "master_user_list.csv", "master_user_list.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.folder, tt.name))
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/user_docs/a%20b.jpg", PublicURL("https://cdn.example.com", "user_docs/a b.jpg"))
}
