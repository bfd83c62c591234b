package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type loginForm struct {
	Username   string `form:"username" binding:"required"`
	Password   string `form:"password" binding:"required"`
	RememberMe string `form:"remember_me"`
}

type registerForm struct {
	Nama     string `form:"nama" binding:"required,personname"`
	Prodi    string `form:"prodi" binding:"required"`
	Angkatan int    `form:"angkatan" binding:"required,cohortyear"`
	Password string `form:"password" binding:"required"`
}

// registerValidators installs the form tags on gin's validator engine.
// cohortyear accepts only the given years.
func registerValidators(years []int) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				return true
			}
		}
		return false
	}); err != nil {
		return fmt.Errorf("register personname validator: %w", err)
	}

	allowed := make(map[int64]bool, len(years))
	for _, y := range years {
		allowed[int64(y)] = true
	}
	if err := v.RegisterValidation("cohortyear", func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().Int()]
	}); err != nil {
		return fmt.Errorf("register cohortyear validator: %w", err)
	}
	return nil
}

// formError maps a binding failure to the message shown on the form
func formError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Data formulir tidak valid."
	}
	for _, fe := range errs {
		switch fe.Tag() {
		case "personname":
			return "Nama harus mengandung huruf."
		case "cohortyear":
			return "Angkatan tidak valid."
		}
	}
	return "Semua kolom wajib diisi."
}
