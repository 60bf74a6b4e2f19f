package medicaldocs

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allie-backend/internal/shared/storage/object"
	"allie-backend/internal/shared/storage/object/local"
)

var fixedNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *local.Store) {
	t.Helper()
	store := local.New(t.TempDir())
	uploads := local.New(t.TempDir())
	svc := &Service{
		Repo:          NewMemoryRepo(),
		Categories:    NewMemoryCategoryRepo(),
		Store:         store,
		Uploads:       uploads,
		UploadsPrefix: "medical-documents/",
		Now:           func() time.Time { return fixedNow },
	}
	return svc, uploads
}

func TestCreateWithFileIndexesText(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, "fam-1", "google:1", Input{
		Title: "Blood panel",
		Tags:  []string{" labs ", "labs", ""},
	}, &File{Name: "panel.txt", Body: strings.NewReader("Ferritin low, recheck in March")})
	require.NoError(t, err)

	assert.Equal(t, []string{"labs"}, doc.Tags)
	assert.Equal(t, fixedNow, doc.Date)
	assert.True(t, doc.HasFile())
	assert.Equal(t, "panel.txt", doc.FileName)
	assert.Contains(t, doc.ExtractedText, "Ferritin")

	found, err := svc.List(ctx, "fam-1", Filter{Search: "FERRITIN"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, rc, err := svc.Download(ctx, "fam-1", doc.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "Ferritin low, recheck in March", string(body))
}

func TestCreateWithoutFile(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	doc, err := svc.Create(context.Background(), "fam-1", "google:1", Input{Title: "Vaccination card"}, nil)
	require.NoError(t, err)
	assert.False(t, doc.HasFile())
	assert.Equal(t, "", doc.FileName)

	_, _, err = svc.Download(context.Background(), "fam-1", doc.ID)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = svc.Create(context.Background(), "fam-1", "google:1", Input{Title: " "}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListFiltersAndOrdersByDate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	mk := func(title, category, patient string, daysAgo int, tags ...string) {
		_, err := svc.Create(ctx, "fam-1", "u", Input{
			Title:     title,
			Category:  category,
			PatientID: patient,
			Date:      fixedNow.AddDate(0, 0, -daysAgo),
			Tags:      tags,
		}, nil)
		require.NoError(t, err)
	}
	mk("Old x-ray", "imaging", "m-1", 30)
	mk("New x-ray", "imaging", "m-2", 1)
	mk("Allergy letter", "letters", "m-1", 10, "penicillin")
	_, err := svc.Create(ctx, "fam-2", "u", Input{Title: "Other family"}, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, "fam-1", Filter{Category: "all"})
	require.NoError(t, err)
	titles := []string{}
	for _, d := range all {
		titles = append(titles, d.Title)
	}
	assert.Equal(t, []string{"New x-ray", "Allergy letter", "Old x-ray"}, titles)

	imaging, err := svc.List(ctx, "fam-1", Filter{Category: "imaging", PatientID: "m-1"})
	require.NoError(t, err)
	require.Len(t, imaging, 1)
	assert.Equal(t, "Old x-ray", imaging[0].Title)

	byTag, err := svc.List(ctx, "fam-1", Filter{Search: "Penicillin"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Allergy letter", byTag[0].Title)

	punctuation, err := svc.List(ctx, "fam-1", Filter{Search: `", "`})
	require.NoError(t, err)
	assert.Empty(t, punctuation)
}

func TestUpdatePartial(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	exp := fixedNow.AddDate(1, 0, 0)
	doc, err := svc.Create(ctx, "fam-1", "u", Input{Title: "Card", Description: "front", ExpirationDate: &exp}, nil)
	require.NoError(t, err)

	title := "Insurance card"
	tags := []string{"card", "card"}
	updated, err := svc.Update(ctx, "fam-1", doc.ID, Update{Title: &title, Tags: &tags, ClearExpiration: true})
	require.NoError(t, err)
	assert.Equal(t, "Insurance card", updated.Title)
	assert.Equal(t, "front", updated.Description)
	assert.Equal(t, []string{"card"}, updated.Tags)
	assert.Nil(t, updated.ExpirationDate)

	empty := ""
	_, err = svc.Update(ctx, "fam-1", doc.ID, Update{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, "fam-2", doc.ID, Update{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesFile(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Create(ctx, "fam-1", "u", Input{Title: "Scan"}, &File{Name: "scan.txt", Body: strings.NewReader("x")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "fam-1", doc.ID))
	_, err = svc.Store.Open(ctx, doc.StorageKey)
	assert.ErrorIs(t, err, object.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "fam-1", doc.ID), ErrNotFound)
}

func TestCreateFromUpload(t *testing.T) {
	t.Parallel()

	svc, uploads := newTestService(t)
	ctx := context.Background()

	key := object.OwnerPrefix("medical-documents/", "fam-1") + "abc-report.txt"
	_, err := uploads.SaveWithKey(ctx, key, "text/plain", strings.NewReader("MRI shows no abnormality"))
	require.NoError(t, err)

	_, err = svc.CreateFromUpload(ctx, "fam-2", "u", key, "report.txt", Input{Title: "MRI"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	doc, err := svc.CreateFromUpload(ctx, "fam-1", "u", key, "report.txt", Input{Title: "MRI"})
	require.NoError(t, err)
	assert.Equal(t, int64(len("MRI shows no abnormality")), doc.FileSize)
	assert.Contains(t, doc.ExtractedText, "abnormality")

	_, err = uploads.Stat(ctx, key)
	assert.ErrorIs(t, err, object.ErrNotFound)

	_, err = svc.CreateFromUpload(ctx, "fam-1", "u", key, "report.txt", Input{Title: "MRI"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategories(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	c1, err := svc.CreateCategory(ctx, "fam-1", "u", CategoryInput{Name: "lab results"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCategoryColor, c1.Color)

	_, err = svc.CreateCategory(ctx, "fam-1", "u", CategoryInput{Name: "Imaging", Color: "#10B981"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, "fam-1", "u", CategoryInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.ListCategories(ctx, "fam-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Imaging", list[0].Name)
	assert.Equal(t, "lab results", list[1].Name)

	require.NoError(t, svc.DeleteCategory(ctx, "fam-1", c1.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, "fam-1", c1.ID), ErrNotFound)
}
