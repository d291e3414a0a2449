package rest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/whoameye/biocard"
	"github.com/whoameye/biocard/editor"
)

// EditorController serves the draft of the signed in user.
type EditorController struct {
	Registry *editor.Registry
	// Base of the share link shown once the username is locked.
	PublicUrl string
}

func (c *EditorController) InstallTo(requestAuthorizer fiber.Handler, app *fiber.App) {
	authorized := func(handler fiber.Handler) fiber.Handler {
		return combineHandlers(requestAuthorizer, handler)
	}
	app.Get("/api/editor", authorized(c.serveState))
	app.Post("/api/editor/edit", authorized(c.serveEdit))
	app.Patch("/api/editor/fields", authorized(c.serveUpdateField))
	app.Put("/api/editor/username", authorized(c.serveSetUsername))
	app.Put("/api/editor/socials", authorized(c.serveUpdateSocial))
	app.Post("/api/editor/links", authorized(c.serveAddLink))
	app.Patch("/api/editor/links/:index", authorized(c.serveUpdateLink))
	app.Delete("/api/editor/links/:index", authorized(c.serveRemoveLink))
	app.Put("/api/editor/avatar", authorized(c.serveStageAvatar))
	app.Put("/api/editor/banner-image", authorized(c.serveStageBannerImage))
	app.Post("/api/editor/gallery", authorized(c.serveUploadGallery))
	app.Delete("/api/editor/gallery/:index", authorized(c.serveRemoveGalleryImage))
	app.Post("/api/editor/save", authorized(c.serveSave))
}

type profileDto struct {
	UserId      biocard.UserId  `json:"userId"`
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName"`
	Pronouns    string          `json:"pronouns"`
	Tagline     string          `json:"tagline"`
	Bio         string          `json:"bio"`
	Avatar      string          `json:"avatar"`
	Banner      string          `json:"banner"`
	BannerImage string          `json:"bannerImage"`
	Links       []biocard.Link  `json:"links"`
	Gallery     []string        `json:"gallery"`
	Socials     biocard.Socials `json:"socials"`
	Font        biocard.Font    `json:"font"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

func newProfileDto(p biocard.Profile) profileDto {
	dto := profileDto{
		UserId:      p.UserId,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Pronouns:    p.Pronouns,
		Tagline:     p.Tagline,
		Bio:         p.Bio,
		Avatar:      p.Avatar,
		Banner:      p.Banner,
		BannerImage: p.BannerImage,
		Links:       p.Links,
		Gallery:     p.Gallery,
		Socials:     p.Socials,
		Font:        p.Font,
	}
	if dto.Links == nil {
		dto.Links = []biocard.Link{}
	}
	if dto.Gallery == nil {
		dto.Gallery = []string{}
	}
	if !p.UpdatedAt.IsZero() {
		updatedAt := p.UpdatedAt
		dto.UpdatedAt = &updatedAt
	}
	return dto
}

type editorStateResponse struct {
	Profile        profileDto  `json:"profile"`
	Mode           editor.Mode `json:"mode"`
	UsernameLocked bool        `json:"usernameLocked"`
	ShareUrl       string      `json:"shareUrl,omitempty"`
}

func (c *EditorController) stateResponse(state editor.State) editorStateResponse {
	resp := editorStateResponse{
		Profile:        newProfileDto(state.Profile),
		Mode:           state.Mode,
		UsernameLocked: state.UsernameLocked,
	}
	if state.UsernameLocked && state.Profile.Username != "" {
		resp.ShareUrl = c.PublicUrl + "/u/" + state.Profile.Username
	}
	return resp
}

func (c *EditorController) acquire(ctx *fiber.Ctx) (*editor.Editor, error) {
	session, err := sessionOf(ctx)
	if err != nil {
		return nil, err
	}
	e, err := c.Registry.Acquire(ctx.Context(), session)
	if err != nil {
		return nil, fmt.Errorf("acquire editor: %w", err)
	}
	return e, nil
}

// withEditor runs mutate on the session editor and replies with the new state.
func (c *EditorController) withEditor(ctx *fiber.Ctx, mutate func(e *editor.Editor) error) error {
	e, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	if err := mutate(e); err != nil {
		return editorError(ctx, err)
	}
	return ctx.JSON(c.stateResponse(e.State()))
}

func editorError(ctx *fiber.Ctx, err error) error {
	var validationErr *editor.ValidationError
	var saveErr *editor.SaveError
	switch {
	case errors.As(err, &validationErr):
		return fiber.NewError(fiber.StatusUnprocessableEntity, validationErr.Message)
	case errors.As(err, &saveErr):
		requestLog(ctx).WithError(saveErr.Err).Warnln("Could not save profile.")
		code := fiber.StatusInternalServerError
		if errors.Is(saveErr, biocard.ErrUsernameTaken) {
			code = fiber.StatusConflict
		}
		return fiber.NewError(code, "Error saving profile: "+saveErr.Error())
	case errors.Is(err, editor.ErrLinkIndex),
		errors.Is(err, editor.ErrGalleryIndex),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrUnknownPlatform):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, editor.ErrUsernameLocked):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

func indexParam(ctx *fiber.Ctx) (int, error) {
	index, err := ctx.ParamsInt("index")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid index")
	}
	return index, nil
}

// Pronouns are left out, the editor sanitizes and truncates them.
var fieldMaxLen = map[editor.Field]int{
	editor.FieldDisplayName: biocard.MaxDisplayNameLen,
	editor.FieldTagline:     biocard.MaxTaglineLen,
	editor.FieldBio:         biocard.MaxBioLen,
}

func checkLength(name string, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("%s must be at most %d characters", name, max))
	}
	return nil
}

func (c *EditorController) serveState(ctx *fiber.Ctx) error {
	return c.withEditor(ctx, func(e *editor.Editor) error { return nil })
}

func (c *EditorController) serveEdit(ctx *fiber.Ctx) error {
	return c.withEditor(ctx, func(e *editor.Editor) error { return e.Edit() })
}

func (c *EditorController) serveUpdateField(ctx *fiber.Ctx) error {
	var body struct {
		Field string `json:"field" validate:"required,oneof=display_name pronouns tagline bio banner font"`
		Value string `json:"value" validate:"max=2048"`
	}
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	field := editor.Field(body.Field)
	if err := checkLength(body.Field, body.Value, fieldMaxLen[field]); err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error {
		return e.UpdateField(field, body.Value)
	})
}

func (c *EditorController) serveSetUsername(ctx *fiber.Ctx) error {
	var body struct {
		Username string `json:"username" validate:"max=64"`
	}
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error {
		return e.SetUsername(body.Username)
	})
}

func (c *EditorController) serveUpdateSocial(ctx *fiber.Ctx) error {
	var body struct {
		Platform string `json:"platform" validate:"required"`
		Url      string `json:"url" validate:"max=2048"`
	}
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error {
		return e.UpdateSocial(biocard.Platform(body.Platform), body.Url)
	})
}

func (c *EditorController) serveAddLink(ctx *fiber.Ctx) error {
	return c.withEditor(ctx, func(e *editor.Editor) error { return e.AddLink() })
}

func (c *EditorController) serveUpdateLink(ctx *fiber.Ctx) error {
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}
	var body struct {
		Field string `json:"field" validate:"required,oneof=label url"`
		Value string `json:"value" validate:"max=2048"`
	}
	if err := parseBody(ctx, &body); err != nil {
		return err
	}
	field := editor.LinkField(body.Field)
	if field == editor.LinkFieldLabel {
		if err := checkLength(body.Field, body.Value, biocard.MaxLinkLabelLen); err != nil {
			return err
		}
	}
	return c.withEditor(ctx, func(e *editor.Editor) error {
		return e.UpdateLink(index, field, body.Value)
	})
}

func (c *EditorController) serveRemoveLink(ctx *fiber.Ctx) error {
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error { return e.RemoveLink(index) })
}

func multipartFile(fh *multipart.FileHeader) editor.File {
	return editor.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

func formFile(ctx *fiber.Ctx) (editor.File, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return editor.File{}, fiber.NewError(fiber.StatusBadRequest, "missing file")
	}
	return multipartFile(fh), nil
}

func (c *EditorController) serveStageAvatar(ctx *fiber.Ctx) error {
	file, err := formFile(ctx)
	if err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error { return e.StageAvatar(file) })
}

func (c *EditorController) serveStageBannerImage(ctx *fiber.Ctx) error {
	file, err := formFile(ctx)
	if err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error { return e.StageBannerImage(file) })
}

func (c *EditorController) serveUploadGallery(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no files")
	}
	files := make([]editor.File, len(headers))
	for i, fh := range headers {
		files[i] = multipartFile(fh)
	}

	e, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	report, err := e.UploadGalleryImages(ctx.Context(), files)
	if err != nil {
		return editorError(ctx, err)
	}

	status := fiber.StatusOK
	if report.Partial() {
		status = fiber.StatusMultiStatus
	}
	return ctx.Status(status).JSON(struct {
		Report editor.UploadReport `json:"report"`
		State  editorStateResponse `json:"state"`
	}{report, c.stateResponse(e.State())})
}

func (c *EditorController) serveRemoveGalleryImage(ctx *fiber.Ctx) error {
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}
	return c.withEditor(ctx, func(e *editor.Editor) error {
		return e.RemoveGalleryImage(ctx.Context(), index)
	})
}

func (c *EditorController) serveSave(ctx *fiber.Ctx) error {
	return c.withEditor(ctx, func(e *editor.Editor) error {
		_, err := e.Save(ctx.Context())
		return err
	})
}
