package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(CodeInvalidDesign, "bad canvas %dx%d", 0, 4)
	assert.Equal(t, "INVALID_DESIGN: bad canvas 0x4", err.Error())
	assert.Equal(t, CodeInvalidDesign, GetCode(err))
	assert.Equal(t, "bad canvas 0x4", UserMessage(err))
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	err := Wrap(CodeImportFailed, os.ErrNotExist, "reading %s", "design.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "reading design.yaml")
	assert.Equal(t, "reading design.yaml: file does not exist", UserMessage(err))
}

func TestIs_WalksNestedCodes(t *testing.T) {
	inner := New(CodeFailedConstruction, "zero area")
	outer := Wrap(CodeInternal, inner, "layer 2")
	wrapped := fmt.Errorf("run: %w", outer)

	assert.True(t, Is(wrapped, CodeInternal))
	assert.True(t, Is(wrapped, CodeFailedConstruction))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Equal(t, CodeInternal, GetCode(wrapped))
}

func TestPlainErrors(t *testing.T) {
	err := fmt.Errorf("plain")
	assert.False(t, Is(err, CodeInternal))
	assert.Equal(t, Code(""), GetCode(err))
	assert.Equal(t, "plain", UserMessage(err))
	assert.False(t, Is(nil, CodeInternal))
}
