package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	assert.Equal(t, "ㄱㅏ", Disassemble("가"))
	assert.Equal(t, "ㄷㅏㄹㄱ", Disassemble("닭"))
	assert.Equal(t, "ㄱㅗㅏ", Disassemble("과"))
	assert.Equal(t, "ㄱㅅ", Disassemble("ㄳ"))
	assert.Equal(t, "art ㅇㅏㅌㅡ", Disassemble("art 아트"))
}

func TestDisassembleIsRuneWise(t *testing.T) {
	a, b := "알고", "리즘 art"
	assert.Equal(t, Disassemble(a)+Disassemble(b), Disassemble(a+b))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "ㅇㄱㄹㅈ ㅇㅌ", Initials("알고리즘 아트"))
	assert.Equal(t, "slack ㄱㅇㅍ", Initials("slack 귀요퓨"))
}

func TestIsInitialsQuery(t *testing.T) {
	assert.True(t, IsInitialsQuery("ㅇㄱ"))
	assert.True(t, IsInitialsQuery("ㅇㄱ ㄹㅈ"))
	assert.False(t, IsInitialsQuery("ㅇ가"))
	assert.False(t, IsInitialsQuery("art"))
	assert.False(t, IsInitialsQuery("   "))
	assert.False(t, IsInitialsQuery("ㅏ"))
}

func TestMatchText(t *testing.T) {
	tests := []struct {
		keyword string
		field   string
		want    bool
	}{
		{"art", "algorithmic art", true},
		{"ART", "algorithmic art", true},
		{"ㅇㄱㄹㅈ", "알고리즘 아트", true},
		{"ㄱㄹ", "알고리즘 아트", true},
		{"ㄹㄱ", "알고리즘 아트", true},
		{"ㅌㅇ", "알고리즘 아트", false},
		{"알고", "알고리즘 아트", true},
		{"알ㄱ", "알고리즘 아트", true},
		{"리즘", "알고리즘", true},
		{"디자인", "캔버스 디자인", true},
		{"ㅋㅂㅅ", "캔버스 디자인", true},
		{"pdf", "캔버스 디자인", false},
		{"", "", true},
		{"x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.keyword+"/"+tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMatcher(tt.keyword).MatchText(tt.field))
		})
	}
}
