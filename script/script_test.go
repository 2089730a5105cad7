package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "replace ads", source: `text.replace(/本章未完.*$/m, "").trim()`, want: "正文"},
		{name: "use title", source: `title + "\n" + text`, want: "标题\n正文\n本章未完，请点击下一页"},
		{name: "undefined keeps text", source: `var x = 1;`, want: "正文\n本章未完，请点击下一页"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.source, time.Second)
			require.NoError(t, err)
			got, err := f.Apply("标题", "正文\n本章未完，请点击下一页")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileError(t *testing.T) {
	_, err := Compile(`function (`, time.Second)
	assert.Error(t, err)
}

func TestRuntimeError(t *testing.T) {
	f, err := Compile(`undefinedFn()`, time.Second)
	require.NoError(t, err)
	_, err = f.Apply("t", "x")
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	f, err := Compile(`var i = 0; while (true) { i++; }`, 50*time.Millisecond)
	require.NoError(t, err)
	_, err = f.Apply("t", "x")
	assert.ErrorIs(t, err, errHalt)
}
