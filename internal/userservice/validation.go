package userservice

import (
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegisterRequest(v *common.Validator, req *RegisterRequest) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)

	v.Struct(req)
}

func validateLoginRequest(v *common.Validator, req *LoginRequest) {
	req.Email = normalizeEmail(req.Email)

	v.Struct(req)
}
