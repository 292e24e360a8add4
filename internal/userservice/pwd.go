package userservice

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// dummyPassword is compared against when no account matches, so a login costs one bcrypt run either way.
var dummyPassword = sync.OnceValue(func() *Password {
	hash, err := bcrypt.GenerateFromPassword([]byte("inkpost-no-such-user"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return &Password{hash: hash}
})

func (p *Password) set(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcryptCost)
	if err != nil {
		return err
	}

	p.Plain = pwd
	p.hash = hash

	return nil
}

func (p *Password) compare(pwd string) (bool, error) {
	if len(p.hash) == 0 {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword(p.hash, []byte(pwd))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}
