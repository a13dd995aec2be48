package userdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGroup(t *testing.T) {
	path := writeFile(t, "group",
		"root:x:0:\n"+
			"adm:x:4:syslog,ubuntu\n"+
			"# comment\n")

	gf, err := LoadGroup(path)
	require.NoError(t, err)

	entries := gf.Entries()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Members)

	adm := gf.Find("adm")
	require.NotNil(t, adm)
	assert.Equal(t, GID(4), adm.GID)
	assert.Equal(t, []string{"syslog", "ubuntu"}, adm.Members)
}

func TestGroupAppendAndBytes(t *testing.T) {
	content := "root:x:0:\n# keep me\n"
	path := writeFile(t, "group", content)

	gf, err := LoadGroup(path)
	require.NoError(t, err)
	gf.Append(GroupEntry{Name: "httpd", Passwd: "x", GID: 999})

	assert.Equal(t, content+"httpd:x:999:\n", string(gf.Bytes()))
}

func TestGroupEntryString(t *testing.T) {
	e := GroupEntry{Name: "adm", Passwd: "x", GID: 4, Members: []string{"a", "b"}}
	assert.Equal(t, "adm:x:4:a,b", e.String())
}

func TestShadowFind(t *testing.T) {
	path := writeFile(t, "shadow",
		"root:!:19000:0:99999:7:::\n"+
			"ghost:*:19000:0:99999:7:::\n")

	sf, err := LoadShadow(path)
	require.NoError(t, err)
	assert.NotNil(t, sf.Find("ghost"))
	assert.Nil(t, sf.Find("nobody"))
}
