package registry

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/fgeck/gowake/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	loadFunc func() ([]models.Machine, error)
	saveFunc func(machines []models.Machine) error
	saved    [][]models.Machine
}

func (m *mockStore) Load() ([]models.Machine, error) {
	if m.loadFunc != nil {
		return m.loadFunc()
	}
	return nil, nil
}

func (m *mockStore) Save(machines []models.Machine) error {
	m.saved = append(m.saved, slices.Clone(machines))
	if m.saveFunc != nil {
		return m.saveFunc(machines)
	}
	return nil
}

func (m *mockStore) Path() string {
	return "/tmp/machines.yaml"
}

func (m *mockStore) last() []models.Machine {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

var (
	officeMAC = models.MACAddress{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB}
	nasMAC    = models.MACAddress{0xb0, 0x6e, 0xbf, 0x30, 0x70, 0x3a}
	tvMAC     = models.MACAddress{0x10, 0x20, 0x30, 0x40, 0x50, 0x60}
)

func openTest(t *testing.T, store *mockStore) *Registry {
	t.Helper()
	r, err := Open(store, testLogger())
	require.NoError(t, err)
	return r
}

func names(r *Registry) []string {
	var out []string
	for m := range r.List() {
		out = append(out, m.Name)
	}
	return out
}

func TestOpen_Empty(t *testing.T) {
	r := openTest(t, &mockStore{})

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, names(r))
}

func TestOpen_LoadError(t *testing.T) {
	store := &mockStore{
		loadFunc: func() ([]models.Machine, error) {
			return nil, ErrConfigCorrupt
		},
	}

	r, err := Open(store, testLogger())

	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrConfigCorrupt)
}

func TestAdd_Lookup(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)

	require.NoError(t, r.Add("office", officeMAC))

	mac, err := r.Lookup("office")
	require.NoError(t, err)
	assert.Equal(t, officeMAC, mac)
	assert.Equal(t, []models.Machine{{Name: "office", MAC: officeMAC}}, store.last())
}

func TestAdd_Duplicate(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)
	require.NoError(t, r.Add("office", officeMAC))

	err := r.Add("office", nasMAC)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)
	mac, err := r.Lookup("office")
	require.NoError(t, err)
	assert.Equal(t, officeMAC, mac)
	assert.Len(t, store.saved, 1)
}

func TestAdd_NamesAreCaseSensitive(t *testing.T) {
	r := openTest(t, &mockStore{})

	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("Office", nasMAC))

	mac, err := r.Lookup("Office")
	require.NoError(t, err)
	assert.Equal(t, nasMAC, mac)
}

func TestAdd_SameMACDifferentNames(t *testing.T) {
	r := openTest(t, &mockStore{})

	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("office-alias", officeMAC))

	assert.Equal(t, []string{"office", "office-alias"}, r.NamesFor(officeMAC))
	assert.Empty(t, r.NamesFor(tvMAC))
}

func TestAdd_EmptyName(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)

	for _, name := range []string{"", "   ", "\t"} {
		err := r.Add(name, officeMAC)
		assert.ErrorIs(t, err, ErrInvalidName)
	}
	assert.Empty(t, store.saved)
}

func TestLookup_NotFound(t *testing.T) {
	r := openTest(t, &mockStore{})

	_, err := r.Lookup("office")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"office"`)
}

func TestEdit(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)
	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("nas", nasMAC))

	require.NoError(t, r.Edit("office", tvMAC))

	mac, err := r.Lookup("office")
	require.NoError(t, err)
	assert.Equal(t, tvMAC, mac)
	// Position is kept.
	assert.Equal(t, []string{"office", "nas"}, names(r))
	assert.Equal(t, []models.Machine{{Name: "office", MAC: tvMAC}, {Name: "nas", MAC: nasMAC}}, store.last())
}

func TestEdit_Idempotent(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)
	require.NoError(t, r.Add("office", officeMAC))

	require.NoError(t, r.Edit("office", nasMAC))
	first := store.last()
	require.NoError(t, r.Edit("office", nasMAC))

	assert.Equal(t, first, store.last())
	assert.Equal(t, 1, r.Len())
}

func TestEdit_NotFound(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)

	err := r.Edit("office", officeMAC)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.saved)
}

func TestRemove(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)
	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("nas", nasMAC))
	require.NoError(t, r.Add("tv", tvMAC))

	require.NoError(t, r.Remove("office"))

	_, err := r.Lookup("office")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"nas", "tv"}, names(r))
	mac, err := r.Lookup("tv")
	require.NoError(t, err)
	assert.Equal(t, tvMAC, mac)
	assert.Equal(t, []models.Machine{{Name: "nas", MAC: nasMAC}, {Name: "tv", MAC: tvMAC}}, store.last())
}

func TestRemove_Multiple(t *testing.T) {
	r := openTest(t, &mockStore{})
	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("nas", nasMAC))
	require.NoError(t, r.Add("tv", tvMAC))

	require.NoError(t, r.Remove("tv", "office", "tv"))

	assert.Equal(t, []string{"nas"}, names(r))
}

func TestRemove_PartiallyMissing(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)
	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("nas", nasMAC))

	err := r.Remove("office", "ghost", "phantom", "ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"ghost", "phantom"}, nf.Names)
	assert.Equal(t, "machine not found: ghost, phantom", err.Error())

	// Present names are removed and saved anyway.
	assert.Equal(t, []string{"nas"}, names(r))
	assert.Equal(t, []models.Machine{{Name: "nas", MAC: nasMAC}}, store.last())
}

func TestRemove_AllMissing_DoesNotSave(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)

	err := r.Remove("ghost")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.saved)
}

func TestSaveFailure_KeepsMemoryState(t *testing.T) {
	diskFull := errors.New("no space left on device")
	store := &mockStore{
		saveFunc: func(machines []models.Machine) error {
			return diskFull
		},
	}
	r := openTest(t, store)

	err := r.Add("office", officeMAC)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, diskFull)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/tmp/machines.yaml", pe.Path)

	mac, err := r.Lookup("office")
	require.NoError(t, err)
	assert.Equal(t, officeMAC, mac)
}

func TestRemove_PartiallyMissingAndSaveFailure(t *testing.T) {
	store := &mockStore{}
	r := openTest(t, store)
	require.NoError(t, r.Add("office", officeMAC))
	store.saveFunc = func(machines []models.Machine) error {
		return errors.New("permission denied")
	}

	err := r.Remove("office", "ghost")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 0, r.Len())
}

func TestList_InsertionOrderAndRestartable(t *testing.T) {
	r := openTest(t, &mockStore{})
	require.NoError(t, r.Add("zeta", officeMAC))
	require.NoError(t, r.Add("alpha", nasMAC))
	require.NoError(t, r.Add("mid", tvMAC))

	seq := r.List()
	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, first, second)
	assert.Equal(t, []models.Machine{
		{Name: "zeta", MAC: officeMAC},
		{Name: "alpha", MAC: nasMAC},
		{Name: "mid", MAC: tvMAC},
	}, first)
}

func TestList_EarlyBreak(t *testing.T) {
	r := openTest(t, &mockStore{})
	require.NoError(t, r.Add("office", officeMAC))
	require.NoError(t, r.Add("nas", nasMAC))

	count := 0
	for range r.List() {
		count++
		break
	}

	assert.Equal(t, 1, count)
}
