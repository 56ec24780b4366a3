package model

import "errors"

var ErrorInvalidEmailOrPassword = errors.New("invalid email or password")
var ErrorInvalidToken = errors.New("invalid token")
var ErrorUserNotFound = errors.New("user not found")
var ErrorContactNotFound = errors.New("contact not found")
var ErrorDuplicateEmail = errors.New("email already in use")
var ErrorDuplicateUsername = errors.New("username already in use")
var ErrorForbidden = errors.New("insufficient privileges")
var ErrorUnsupportedImageType = errors.New("only JPEG and PNG images are allowed")
