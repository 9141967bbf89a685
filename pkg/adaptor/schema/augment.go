package schema

import (
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
)

// Augment returns the declarations the adaptor needs on top of s. s is not modified.
// In profile mode the profile sub-document and its username and email paths must
// already be declared; they are never declared here.
func Augment(s *Schema, cfg *options.Config) ([]Decl, error) {
	if s == nil {
		return nil, apperrors.ErrMissingSchema
	}

	var decls []Decl

	if cfg.ProfileMode() {
		if err := checkProfile(s, cfg); err != nil {
			return nil, err
		}
	} else {
		username := cfg.FieldName(options.FieldUsername)
		if !s.Has(username) {
			decls = append(decls, Decl{
				Path:      username,
				Type:      String,
				Trim:      true,
				Unique:    cfg.UsernameUnique(),
				Lowercase: cfg.UsernameLowerCase(),
			})
		}
	}

	decls = append(decls,
		Decl{Path: cfg.FieldName(options.FieldHash), Type: String},
		Decl{Path: cfg.FieldName(options.FieldSalt), Type: String},
		Decl{Path: cfg.FieldName(options.FieldLastLogin), Type: Number},
		Decl{Path: cfg.FieldName(options.FieldLastLogout), Type: Number},
		Decl{Path: cfg.FieldName(options.FieldResetPasswordHash), Type: String},
		Decl{Path: cfg.FieldName(options.FieldResetPasswordExpiration), Type: Number},
	)

	if cfg.LimitLoginAttempts() {
		decls = append(decls,
			Decl{Path: cfg.FieldName(options.FieldLoginAttempts), Type: Number, Default: int64(0)},
			Decl{Path: cfg.FieldName(options.FieldLoginAttemptLockTime), Type: Number},
		)
	}

	return withoutDeclared(s, decls), nil
}

// Apply merges the declarations returned by Augment into s.
func Apply(s *Schema, cfg *options.Config) error {
	decls, err := Augment(s, cfg)
	if err != nil {
		return err
	}
	s.Add(decls...)
	return nil
}

func checkProfile(s *Schema, cfg *options.Config) error {
	profile := cfg.ProfileField()
	if !s.IsDocument(profile) {
		return apperrors.ErrMissingUserProfile.WithDetail("%q is not declared as a sub-document", profile)
	}
	if username := cfg.Path(options.FieldUsername); !s.Has(username) {
		return apperrors.ErrMissingUsernameInProfile.WithDetail("%q is not declared", username)
	}
	if email := cfg.Path(options.FieldEmail); !s.Has(email) {
		return apperrors.ErrMissingEmailInProfile.WithDetail("%q is not declared", email)
	}
	return nil
}

func withoutDeclared(s *Schema, decls []Decl) []Decl {
	out := decls[:0]
	for _, d := range decls {
		if !s.Has(d.Path) {
			out = append(out, d)
		}
	}
	return out
}
