package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
)

type Stores struct {
	Profiles biocard.ProfileStore
	Assets   biocard.AssetStore
	// Optional.
	Activities biocard.ActivityStore
}

// State is a snapshot of an editor.
type State struct {
	Profile        biocard.Profile
	Mode           Mode
	UsernameLocked bool
}

// Editor holds the draft profile of one user session.
type Editor struct {
	userId biocard.UserId
	stores Stores

	// Defaults to time.Now.
	Now func() time.Time
	// Defaults to biocard.RandomAssetSuffix.
	Suffix func() (string, error)

	mutex          sync.Mutex
	loaded         bool
	draft          biocard.Profile
	mode           Mode
	usernameLocked bool
}

func New(userId biocard.UserId, stores Stores) *Editor {
	return &Editor{
		userId: userId,
		stores: stores,
		Now:    time.Now,
		Suffix: biocard.RandomAssetSuffix,
		mode:   ModeEditing,
	}
}

func (e *Editor) UserId() biocard.UserId {
	return e.userId
}

func (e *Editor) State() State {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return State{
		Profile:        e.draft.Clone(),
		Mode:           e.mode,
		UsernameLocked: e.usernameLocked,
	}
}

// LoadDraft reads the stored profile or starts from defaults when the user
// has never saved one.
func (e *Editor) LoadDraft(ctx context.Context) error {
	profile, err := e.stores.Profiles.ByUserId(ctx, e.userId)
	switch {
	case errors.Is(err, biocard.ErrProfileNotFound):
		profile = biocard.NewDraftProfile(e.userId)
	case err != nil:
		return fmt.Errorf("profile by user id: %w", err)
	}
	if profile.Socials == nil {
		profile.Socials = biocard.EmptySocials()
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.draft = profile
	e.loaded = true
	e.mode = ModeEditing
	e.usernameLocked = profile.Username != ""
	return nil
}

// editable must be called with the mutex held.
func (e *Editor) editable() error {
	if !e.loaded {
		return ErrNotLoaded
	}
	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	return nil
}

func (e *Editor) Edit() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.loaded {
		return ErrNotLoaded
	}
	e.mode = ModeEditing
	return nil
}

func (e *Editor) UpdateField(field Field, value string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	switch field {
	case FieldDisplayName:
		e.draft.DisplayName = value
	case FieldPronouns:
		e.draft.Pronouns = biocard.SanitizePronouns(value)
	case FieldTagline:
		e.draft.Tagline = value
	case FieldBio:
		e.draft.Bio = value
	case FieldBanner:
		e.draft.Banner = value
		e.draft.BannerImage = ""
	case FieldFont:
		e.draft.Font = biocard.Font(value)
	default:
		return ErrUnknownField
	}
	return nil
}

func (e *Editor) UpdateSocial(platform biocard.Platform, url string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if !platform.Known() {
		return ErrUnknownPlatform
	}
	e.draft.Socials[platform] = url
	return nil
}

// SetUsername accepts any value while the username is unlocked.
// The format is checked by Save.
func (e *Editor) SetUsername(username string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if e.usernameLocked {
		return ErrUsernameLocked
	}
	e.draft.Username = username
	return nil
}

func (e *Editor) AddLink() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	e.draft.Links = append(e.draft.Links, biocard.Link{})
	return nil
}

func (e *Editor) UpdateLink(index int, field LinkField, value string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if index < 0 || index >= len(e.draft.Links) {
		return ErrLinkIndex
	}
	switch field {
	case LinkFieldLabel:
		e.draft.Links[index].Label = value
	case LinkFieldUrl:
		e.draft.Links[index].Url = value
	default:
		return ErrUnknownField
	}
	return nil
}

func (e *Editor) RemoveLink(index int) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if index < 0 || index >= len(e.draft.Links) {
		return ErrLinkIndex
	}
	e.draft.Links = append(e.draft.Links[:index:index], e.draft.Links[index+1:]...)
	return nil
}

// StageAvatar puts the file into the draft as a data url. Nothing is uploaded.
func (e *Editor) StageAvatar(file File) error {
	dataUrl, err := file.dataUrl()
	if err != nil {
		return err
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	e.draft.Avatar = dataUrl
	return nil
}

// StageBannerImage puts the file into the draft as a data url. Nothing is uploaded.
func (e *Editor) StageBannerImage(file File) error {
	dataUrl, err := file.dataUrl()
	if err != nil {
		return err
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	e.draft.BannerImage = dataUrl
	return nil
}

// UploadGalleryImages uploads files one by one until the gallery is full.
// A failed file is reported and skipped; already uploaded files are kept.
func (e *Editor) UploadGalleryImages(ctx context.Context, files []File) (UploadReport, error) {
	report := UploadReport{Added: []string{}, Failed: []UploadFailure{}, Skipped: []string{}}

	e.mutex.Lock()
	if err := e.editable(); err != nil {
		e.mutex.Unlock()
		return report, err
	}
	remaining := biocard.GalleryCapacity - len(e.draft.Gallery)
	e.mutex.Unlock()

	for i, file := range files {
		if i >= remaining {
			report.Skipped = append(report.Skipped, file.Name)
			continue
		}
		url, err := e.uploadGalleryImage(ctx, file)
		if err != nil {
			logrus.WithError(err).
				WithField("user_id", e.userId).
				WithField("file", file.Name).
				Warnln("Gallery upload failed.")
			report.Failed = append(report.Failed, UploadFailure{Name: file.Name, Message: err.Error()})
			continue
		}

		e.mutex.Lock()
		if len(e.draft.Gallery) < biocard.GalleryCapacity {
			e.draft.Gallery = append(e.draft.Gallery, url)
			report.Added = append(report.Added, url)
		} else {
			report.Skipped = append(report.Skipped, file.Name)
		}
		e.mutex.Unlock()
	}
	return report, nil
}

func (e *Editor) uploadGalleryImage(ctx context.Context, file File) (string, error) {
	suffix, err := e.Suffix()
	if err != nil {
		return "", fmt.Errorf("asset suffix: %w", err)
	}
	data, err := file.readAll()
	if err != nil {
		return "", err
	}
	key := biocard.GalleryKey(e.userId, e.Now(), suffix, file.Name)
	err = e.stores.Assets.Upload(ctx, key, file.contentType(data), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}
	return e.stores.Assets.PublicUrl(key), nil
}

// RemoveGalleryImage drops the image from the draft. The stored asset is
// deleted on a best-effort basis.
func (e *Editor) RemoveGalleryImage(ctx context.Context, index int) error {
	e.mutex.Lock()
	if err := e.editable(); err != nil {
		e.mutex.Unlock()
		return err
	}
	if index < 0 || index >= len(e.draft.Gallery) {
		e.mutex.Unlock()
		return ErrGalleryIndex
	}
	url := e.draft.Gallery[index]
	e.mutex.Unlock()

	if key := biocard.AssetKeyFromUrl(url); key != "" {
		err := e.stores.Assets.Remove(ctx, key)
		if err != nil {
			logrus.WithError(err).
				WithField("user_id", e.userId).
				WithField("key", key).
				Warnln("Could not remove gallery asset.")
		}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	// the gallery may have shifted while the asset was removed
	for i, u := range e.draft.Gallery {
		if u == url {
			e.draft.Gallery = append(e.draft.Gallery[:i:i], e.draft.Gallery[i+1:]...)
			break
		}
	}
	return nil
}

// Save validates the username and upserts the whole draft.
func (e *Editor) Save(ctx context.Context) (biocard.Profile, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.editable(); err != nil {
		return biocard.Profile{}, err
	}
	username, err := biocard.NormalizeUsername(e.draft.Username)
	if err != nil {
		return biocard.Profile{}, &ValidationError{Field: "username", Message: err.Error()}
	}

	profile := e.draft.Clone()
	profile.UserId = e.userId
	profile.Username = username
	profile.UpdatedAt = e.Now()
	err = e.stores.Profiles.Upsert(ctx, profile)
	if err != nil {
		return biocard.Profile{}, &SaveError{Err: err}
	}

	e.draft = profile
	e.mode = ModeViewing
	e.usernameLocked = true

	if e.stores.Activities != nil {
		err = e.stores.Activities.AddLog(ctx, e.userId, biocard.Activity{
			Name: biocard.ActivityProfileSaved,
			Data: map[string]interface{}{"username": username},
		})
		if err != nil {
			logrus.WithError(err).
				WithField("user_id", e.userId).
				Errorln("Could not add profile saved activity log.")
		}
	}
	return profile.Clone(), nil
}
