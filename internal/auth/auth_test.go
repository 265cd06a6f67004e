package auth_test

import (
	"testing"

	"github.com/strafehub/jumptimer/internal/auth"

	. "github.com/smartystreets/goconvey/convey"
)

func TestJWTRoundTrip(t *testing.T) {
	Convey("Given an issued token", t, func() {
		token, err := auth.GenerateJWT("42", "test-secret", 1)
		So(err, ShouldBeNil)

		Convey("It validates with the right secret and carries subject and jti", func() {
			claims, err := auth.ValidateJWT(token, "test-secret")
			So(err, ShouldBeNil)
			So(claims.Subject, ShouldEqual, "42")
			So(claims.ID, ShouldNotBeEmpty)
		})

		Convey("Two tokens for the same user get distinct jtis", func() {
			other, err := auth.GenerateJWT("42", "test-secret", 1)
			So(err, ShouldBeNil)

			a, err := auth.ValidateJWT(token, "test-secret")
			So(err, ShouldBeNil)
			b, err := auth.ValidateJWT(other, "test-secret")
			So(err, ShouldBeNil)
			So(a.ID, ShouldNotEqual, b.ID)
		})

		Convey("It fails with the wrong secret", func() {
			_, err := auth.ValidateJWT(token, "other-secret")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPasswordHashing(t *testing.T) {
	Convey("Given a hashed password", t, func() {
		hash, err := auth.HashPassword("hunter2")
		So(err, ShouldBeNil)
		So(hash, ShouldNotEqual, "hunter2")

		Convey("The original password verifies and others do not", func() {
			So(auth.CheckPasswordHash("hunter2", hash), ShouldBeTrue)
			So(auth.CheckPasswordHash("hunter3", hash), ShouldBeFalse)
		})
	})
}
