package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhaarey/go-mp4tag"
)

var testAudioPayload = []byte("fake aac frames")

func testBox(name string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	b := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(b, uint32(8+len(body)))
	copy(b[4:], name)
	return append(b, body...)
}

// buildTestM4A lays out ftyp, moov and mdat, with one chunk offset
// pointing at the mdat payload.
func buildTestM4A(ilstItems ...[]byte) []byte {
	build := func(chunkOffset uint32) []byte {
		stco := make([]byte, 12)
		binary.BigEndian.PutUint32(stco[4:], 1)
		binary.BigEndian.PutUint32(stco[8:], chunkOffset)

		hdlr := testBox("hdlr", make([]byte, 8), []byte("mdirappl"), make([]byte, 9))
		moov := testBox("moov",
			testBox("trak", testBox("mdia", testBox("minf", testBox("stbl", testBox("stco", stco))))),
			testBox("udta", testBox("meta", make([]byte, 4), hdlr, testBox("ilst", ilstItems...))),
		)
		return bytes.Join([][]byte{
			testBox("ftyp", []byte("M4A \x00\x00\x00\x00M4A mp42isom")),
			moov,
			testBox("mdat", testAudioPayload),
		}, nil)
	}
	first := build(0)
	return build(uint32(len(first) - len(testAudioPayload)))
}

func writeTestM4A(t *testing.T, ilstItems ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "episode.m4a")
	require.NoError(t, os.WriteFile(path, buildTestM4A(ilstItems...), 0644))
	return path
}

func readMP4(t *testing.T, path string) *mp4tag.MP4Tags {
	t.Helper()
	f, err := mp4tag.Open(path)
	require.NoError(t, err)
	defer f.Close()
	tags, err := f.Read()
	require.NoError(t, err)
	return tags
}

func moovOf(t *testing.T, data []byte) atom {
	t.Helper()
	top, err := parseAtoms(data, 0, len(data))
	require.NoError(t, err)
	moov, ok := findAtom(top, "moov")
	require.True(t, ok)
	return moov
}

// readCompilationFlag returns the data type and value of the cpil item.
func readCompilationFlag(t *testing.T, path string) (uint32, byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	moov := moovOf(t, data)

	cpilData, err := atomPath(data, moov.offset+moov.header, moov.end(), "udta", "meta", "ilst", "cpil", "data")
	require.NoError(t, err)
	require.Equal(t, 17, cpilData.size)
	return binary.BigEndian.Uint32(data[cpilData.offset+8:]), data[cpilData.offset+16]
}

// assertAudioReachable checks that the chunk offset still points at the
// media payload.
func assertAudioReachable(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	moov := moovOf(t, data)

	stco, err := atomPath(data, moov.offset+moov.header, moov.end(), "trak", "mdia", "minf", "stbl", "stco")
	require.NoError(t, err)
	offset := int(binary.BigEndian.Uint32(data[stco.offset+16:]))
	require.LessOrEqual(t, offset+len(testAudioPayload), len(data))
	assert.Equal(t, testAudioPayload, data[offset:offset+len(testAudioPayload)])
}

func TestTagFile_MP4(t *testing.T) {
	path := writeTestM4A(t)

	require.NoError(t, NewTagger(DefaultTagOptions()).TagFile(path, testMetadata()))

	tags := readMP4(t, path)
	assert.Equal(t, "Soup Kitchen w/Jane - 01.02.2021", tags.Title)
	assert.Equal(t, "NTS", tags.Album)
	assert.Equal(t, "Host; Jane", tags.Artist)
	assert.Equal(t, int32(2021), tags.Year)
	assert.Equal(t, "Ambient", tags.CustomGenre)
	assert.Equal(t, testMetadata().URL, tags.Comment)
	assert.NotContains(t, tags.Custom, "COMPILATION")

	require.Len(t, tags.Pictures, 1)
	assert.Equal(t, mp4tag.ImageTypeJPEG, tags.Pictures[0].Format)
	assert.Equal(t, testMetadata().Image.Data, tags.Pictures[0].Data)

	dataType, value := readCompilationFlag(t, path)
	assert.Equal(t, uint32(21), dataType)
	assert.Equal(t, byte(1), value)

	assertAudioReachable(t, path)
}

func TestTagFile_MP4OptionalAtomsOff(t *testing.T) {
	path := writeTestM4A(t)

	require.NoError(t, NewTagger(TagOptions{}).TagFile(path, testMetadata()))

	tags := readMP4(t, path)
	assert.Empty(t, tags.Comment)
	assert.Empty(t, tags.Pictures)
	assert.Equal(t, "NTS", tags.Album)

	_, value := readCompilationFlag(t, path)
	assert.Equal(t, byte(1), value)
	assertAudioReachable(t, path)
}

func TestTagFile_MP4NoGenre(t *testing.T) {
	path := writeTestM4A(t)
	meta := testMetadata()
	meta.Genres = nil

	require.NoError(t, NewTagger(DefaultTagOptions()).TagFile(path, meta))

	assert.Empty(t, readMP4(t, path).CustomGenre)
}

func TestTagFile_MP4Retag(t *testing.T) {
	path := writeTestM4A(t)
	tagger := NewTagger(DefaultTagOptions())

	require.NoError(t, tagger.TagFile(path, testMetadata()))
	require.NoError(t, tagger.TagFile(path, testMetadata()))

	assert.Len(t, readMP4(t, path).Pictures, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	moov := moovOf(t, data)
	ilst, err := atomPath(data, moov.offset+moov.header, moov.end(), "udta", "meta", "ilst")
	require.NoError(t, err)
	items, err := childAtoms(data, ilst)
	require.NoError(t, err)

	var cpils int
	for _, item := range items {
		if item.name == "cpil" {
			cpils++
		}
	}
	assert.Equal(t, 1, cpils)
	assertAudioReachable(t, path)
}

func TestSetCompilation_UpdatesInPlace(t *testing.T) {
	path := writeTestM4A(t, cpilAtom(false))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, setCompilation(path, true))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	_, value := readCompilationFlag(t, path)
	assert.Equal(t, byte(1), value)
	assertAudioReachable(t, path)
}

func TestSetCompilation_Inserts(t *testing.T) {
	path := writeTestM4A(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	beforeInfo, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, setCompilation(path, true))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+len(cpilAtom(true)))
	_, value := readCompilationFlag(t, path)
	assert.Equal(t, byte(1), value)
	assertAudioReachable(t, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, beforeInfo.Mode().Perm(), info.Mode().Perm())
}

func TestSetCompilation_MissingIlst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.m4a")
	data := bytes.Join([][]byte{
		testBox("ftyp", []byte("M4A \x00\x00\x00\x00")),
		testBox("moov", testBox("mvhd", make([]byte, 4))),
		testBox("mdat", testAudioPayload),
	}, nil)
	require.NoError(t, os.WriteFile(path, data, 0644))

	err := setCompilation(path, true)

	assert.ErrorIs(t, err, errMalformedAtom)
	after, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, data, after)
}
