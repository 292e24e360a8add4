package blogservice

import (
	"math"
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
)

// readingTime estimates the minutes needed to read body.
func readingTime(body string) int {
	words := len(strings.Fields(body))
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

func validateCreateBlogRequest(v *common.Validator, req *CreateBlogRequest) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Body = sanitizeMarkdown(req.Body)

	v.Struct(req)
}

func validateUpdateBlogRequest(v *common.Validator, req *UpdateBlogRequest) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		req.Description = &description
	}
	if req.Body != nil {
		body := sanitizeMarkdown(*req.Body)
		req.Body = &body
	}

	v.Struct(req)
}

func validateListParams(v *common.Validator, p *ListParams) {
	p.State = strings.TrimSpace(p.State)

	v.Struct(p)
}
