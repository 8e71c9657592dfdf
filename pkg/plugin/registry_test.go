package plugin

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecorator struct{ name string }

func (s *stubDecorator) Name() string { return s.name }

func (s *stubDecorator) Apply(ctx context.Context, img *image.RGBA, panel PanelInfo, config map[string]interface{}) error {
	return nil
}

func (s *stubDecorator) Validate(config map[string]interface{}) error { return nil }

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	dec := &stubDecorator{name: "border"}

	require.NoError(t, r.Register(dec))

	got, exists := r.Get("border")
	assert.True(t, exists)
	assert.Same(t, dec, got)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubDecorator{name: "border"}))
	assert.Error(t, r.Register(&stubDecorator{name: "border"}))
}

func TestRegisterNil(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(nil))
}

func TestRegisterEmptyName(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&stubDecorator{name: ""}))
}

func TestGetMissing(t *testing.T) {
	r := NewRegistry()
	_, exists := r.Get("nope")
	assert.False(t, exists)
}

func TestList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubDecorator{name: "border"}))
	require.NoError(t, r.Register(&stubDecorator{name: "caption-tag"}))

	names := r.List()
	assert.ElementsMatch(t, []string{"border", "caption-tag"}, names)
}
