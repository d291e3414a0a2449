// Package rest exposes the profile card service over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/whoameye/biocard"
)

type ErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}

func requestLog(ctx *fiber.Ctx) *logrus.Entry {
	return logrus.
		WithField("remote_addr", ctx.Context().RemoteAddr()).
		WithField("path", ctx.Path()).
		WithField("z_referer", string(ctx.Request().Header.Peek(fiber.HeaderReferer))).
		WithField("z_user_agent", string(ctx.Request().Header.UserAgent())).
		WithField("z_x_forwared_for", string(ctx.Request().Header.Peek(fiber.HeaderXForwardedFor)))
}

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.
			Status(fe.Code).
			JSON(&ErrorResponse{ErrorMessage: fe.Message})
	}
	requestLog(ctx).WithError(err).Errorln("Internal server error.")
	// keep internal server errors private. reply with generic error message.
	return ctx.
		Status(fiber.ErrInternalServerError.Code).
		JSON(&ErrorResponse{ErrorMessage: fiber.ErrInternalServerError.Message})
}

func NotFoundHandler(ctx *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound)
}

func combineHandlers(handlers ...fiber.Handler) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		for _, handler := range handlers {
			err := handler(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func JsonErrorMessageResponse(message string) string {
	bytes, err := json.Marshal(ErrorResponse{ErrorMessage: message})
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes the request body into body and applies its validate tags.
func parseBody(ctx *fiber.Ctx, body interface{}) error {
	if err := ctx.BodyParser(body); err != nil {
		requestLog(ctx).WithError(err).Infoln("Invalid body.")
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(body); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(fieldErrs[0]))
		}
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return biocard.FriendlyAuthMessage(biocard.ErrInvalidEmail.Error())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "url", "http_url":
		return fe.Field() + " must be a valid url"
	default:
		return fe.Field() + " is invalid"
	}
}
