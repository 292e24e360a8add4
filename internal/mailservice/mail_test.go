package mailservice

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSendEmail(t *testing.T) {
	data := welcomeData{FirstName: "Ada"}

	testCases := []struct {
		name      string
		parseErr  error
		dialErr   error
		wantDial  bool
		expectErr bool
	}{
		{name: "success", wantDial: true},
		{name: "template error", parseErr: errors.New("bad template"), expectErr: true},
		{name: "dial error", dialErr: errors.New("connection refused"), wantDial: true, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockParser := new(MockTemplate)
			mockDialer := new(MockDialer)

			mailer := &Mail{
				dialer: mockDialer,
				parser: mockParser,
				sender: "Inkpost <no-reply@inkpost.dev>",
			}

			if tc.parseErr != nil {
				mockParser.On("ParseTemplate", welcomeTemplate, data).Return(nil, nil, nil, tc.parseErr)
			} else {
				mockParser.On("ParseTemplate", welcomeTemplate, data).Return(
					bytes.NewBufferString("Welcome"),
					bytes.NewBufferString("Hi Ada"),
					bytes.NewBufferString("<p>Hi Ada</p>"),
					nil,
				)
			}
			if tc.wantDial {
				mockDialer.On("DialAndSend", mock.AnythingOfType("[]*mail.Message")).Return(tc.dialErr)
			}

			err := mailer.send("ada@example.com", data, welcomeTemplate)
			assert.Equal(t, tc.expectErr, err != nil)

			mockParser.AssertExpectations(t)
			mockDialer.AssertExpectations(t)
		})
	}
}
