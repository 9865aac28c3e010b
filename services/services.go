// Package services holds the use cases of the ordering platform. Every
// operation takes the caller's Principal explicitly, asks the policy engine
// before touching data and returns apperror values only.
package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"food-ordering-api/apperror"
	"food-ordering-api/auth"
	"food-ordering-api/models"
	"food-ordering-api/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names so messages match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperror.Validation(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "uuid":
		return field + " must be a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func parseID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.Validation(fmt.Sprintf("invalid %s id %q", what, id))
	}
	return nil
}

func requirePrincipal(p *models.Principal) error {
	if p == nil {
		return apperror.Unauthenticated("authentication required")
	}
	return nil
}

// storeErr maps repository failures onto the error taxonomy.
func storeErr(err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(what + " not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict(what + " already exists")
	}
	return apperror.Internal("failed to access "+what, err)
}

// createUser is shared by self-registration and admin-issued manager creation.
func createUser(ctx context.Context, users repository.UserRepository, hasher auth.Hasher,
	name, email, password string, role models.Role, country models.Country) (*models.User, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		Country:      country,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Internal("failed to create user", err)
	}
	return user, nil
}
