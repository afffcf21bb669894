package reverb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestStrTreatsBlankAsAbsent(t *testing.T) {
	p := decode(t, `{"a":"x","b":"","c":"   ","d":7}`)

	v, ok := Str(p, "a")
	require.True(t, ok)
	require.Equal(t, "x", v)

	_, ok = Str(p, "b")
	require.False(t, ok)
	_, ok = Str(p, "c")
	require.False(t, ok)
	_, ok = Str(p, "d")
	require.False(t, ok, "wrong-typed value is absent, not an error")
	_, ok = Str(nil, "a")
	require.False(t, ok)
}

func TestDigStopsAtWrongTypes(t *testing.T) {
	p := decode(t, `{"listing":{"title":"Jazzmaster"},"other":"scalar"}`)

	v, ok := DigStr(p, "listing", "title")
	require.True(t, ok)
	require.Equal(t, "Jazzmaster", v)

	_, ok = DigStr(p, "other", "title")
	require.False(t, ok)
	_, ok = DigStr(p, "missing", "title")
	require.False(t, ok)
}

func TestSelfLink(t *testing.T) {
	p := decode(t, `{"_links":{"self":{"href":"https://api.reverb.com/api/my/conversations/991234"}}}`)

	href, ok := SelfLink(p)
	require.True(t, ok)
	require.Equal(t, "https://api.reverb.com/api/my/conversations/991234", href)

	_, ok = SelfLink(decode(t, `{"_links":{}}`))
	require.False(t, ok)
}

func TestCollectionPrefersTopLevel(t *testing.T) {
	top := decode(t, `{"conversations":[{"id":1}],"_embedded":{"conversations":[{"id":2},{"id":3}]}}`)
	require.Len(t, Collection(top, "conversations"), 1)

	embedded := decode(t, `{"_embedded":{"conversations":[{"id":2},{"id":3}]}}`)
	require.Len(t, Collection(embedded, "conversations"), 2)

	require.Nil(t, Collection(decode(t, `{}`), "conversations"))
}

func TestListSkipsNonObjects(t *testing.T) {
	p := decode(t, `{"items":[{"id":1},"junk",2,{"id":4}]}`)
	items, ok := List(p, "items")
	require.True(t, ok)
	require.Len(t, items, 2)
}

func TestNumAndBool(t *testing.T) {
	p := decode(t, `{"n":3.5,"b":true,"s":"x"}`)

	n, ok := Num(p, "n")
	require.True(t, ok)
	require.Equal(t, 3.5, n)
	_, ok = Num(p, "s")
	require.False(t, ok)

	b, ok := Bool(p, "b")
	require.True(t, ok)
	require.True(t, b)
	_, ok = Bool(p, "n")
	require.False(t, ok)
}
