package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.contacts/internal/model"
)

type ContactService interface {
	Create(ctx context.Context, owner *model.User, params *model.CreateContactParams) (*model.Contact, error)
	Fetch(ctx context.Context, owner *model.User, contactID int64) (*model.Contact, error)
	List(ctx context.Context, owner *model.User, filter *model.ContactFilter) ([]model.Contact, error)
	Update(ctx context.Context, owner *model.User, contactID int64, params *model.UpdateContactParams) (*model.Contact, error)
	Delete(ctx context.Context, owner *model.User, contactID int64) error
}

func CreateContact(contactService ContactService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.CreateContactParams{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if params.FirstName == "" || params.Email == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "first_name and email are required")
		}

		contact, err := contactService.Create(c.Request().Context(), CurrentUser(c), params)
		if err != nil {
			if errors.Is(err, model.ErrorDuplicateEmail) {
				return echo.NewHTTPError(http.StatusConflict, "a contact with this email already exists")
			}
			return err
		}
		return c.JSON(http.StatusCreated, contact)
	}
}

func ListContacts(contactService ContactService) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := &model.ContactFilter{
			Name:  c.QueryParam("name"),
			Email: c.QueryParam("email"),
		}
		contacts, err := contactService.List(c.Request().Context(), CurrentUser(c), filter)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, contacts)
	}
}

func GetContact(contactService ContactService) echo.HandlerFunc {
	return func(c echo.Context) error {
		contactID, err := contactIDParam(c)
		if err != nil {
			return err
		}
		contact, err := contactService.Fetch(c.Request().Context(), CurrentUser(c), contactID)
		if err != nil {
			return contactError(err)
		}
		return c.JSON(http.StatusOK, contact)
	}
}

func UpdateContact(contactService ContactService) echo.HandlerFunc {
	return func(c echo.Context) error {
		contactID, err := contactIDParam(c)
		if err != nil {
			return err
		}
		params := &model.UpdateContactParams{}
		if err := c.Bind(params); err != nil {
			return err
		}

		contact, err := contactService.Update(c.Request().Context(), CurrentUser(c), contactID, params)
		if err != nil {
			return contactError(err)
		}
		return c.JSON(http.StatusOK, contact)
	}
}

func DeleteContact(contactService ContactService) echo.HandlerFunc {
	return func(c echo.Context) error {
		contactID, err := contactIDParam(c)
		if err != nil {
			return err
		}
		if err := contactService.Delete(c.Request().Context(), CurrentUser(c), contactID); err != nil {
			return contactError(err)
		}
		return c.JSON(http.StatusOK, map[string]string{"detail": "Contact deleted"})
	}
}

func contactIDParam(c echo.Context) (int64, error) {
	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid contact id")
	}
	return contactID, nil
}

func contactError(err error) error {
	if errors.Is(err, model.ErrorContactNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}
	if errors.Is(err, model.ErrorDuplicateEmail) {
		return echo.NewHTTPError(http.StatusConflict, "a contact with this email already exists")
	}
	return err
}
