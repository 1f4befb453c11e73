package services

import (
	"time"

	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
)

func (suite *ServiceTestSuite) TestRegisterAndLogin() {
	user, err := suite.auth.Register(suite.ctx, RegisterInput{
		Name:     "Ada",
		Email:    " Ada@Example.COM ",
		Password: "correct horse",
	})
	suite.Require().NoError(err)
	suite.Equal("ada@example.com", user.Email)
	suite.Equal(models.GlobalRoleMember, user.Role)
	suite.NotEqual("correct horse", user.PasswordHash)

	loggedIn, err := suite.auth.Login(suite.ctx, LoginInput{Email: "ADA@example.com", Password: "correct horse"})
	suite.Require().NoError(err)
	suite.Equal(user.ID, loggedIn.ID)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Email: "ada@example.com", Password: "wrong password"})
	suite.requireCode(err, apperrors.ErrCodeInvalidCredentials)

	_, err = suite.auth.Login(suite.ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	suite.requireCode(err, apperrors.ErrCodeInvalidCredentials)
}

func (suite *ServiceTestSuite) TestRegister_Validation() {
	_, err := suite.auth.Register(suite.ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "short"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.auth.Register(suite.ctx, RegisterInput{Name: " ", Email: "ada@example.com", Password: "long enough"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.auth.Register(suite.ctx, RegisterInput{Name: "Ada", Email: "not-an-email", Password: "long enough"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.auth.Register(suite.ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "long enough", Role: "admin"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	pm, err := suite.auth.Register(suite.ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "long enough", Role: models.GlobalRoleProjectManager})
	suite.Require().NoError(err)
	suite.Equal(models.GlobalRoleProjectManager, pm.Role)

	_, err = suite.auth.Register(suite.ctx, RegisterInput{Name: "Ada again", Email: "ADA@example.com", Password: "long enough"})
	suite.requireReason(err, apperrors.ReasonEmailTaken)
}

func (suite *ServiceTestSuite) TestGetAndListUsers() {
	b := suite.createUser("bob")
	a := suite.createUser("alice")

	got, err := suite.auth.GetUser(suite.ctx, b.UserID)
	suite.Require().NoError(err)
	suite.Equal("bob", got.Name)

	_, err = suite.auth.GetUser(suite.ctx, 9999)
	suite.requireCode(err, apperrors.ErrCodeUserNotFound)

	users, err := suite.auth.ListUsers(suite.ctx, a)
	suite.Require().NoError(err)
	suite.Require().Len(users, 2)
	suite.Equal("alice", users[0].Name)
}

func (suite *ServiceTestSuite) TestTokenManager() {
	tokens := NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Email: "ada@example.com"}

	token, err := tokens.Issue(user)
	suite.Require().NoError(err)

	userID, err := tokens.Verify(token)
	suite.Require().NoError(err)
	suite.Equal(uint64(42), userID)

	_, err = NewTokenManager("other-secret", time.Hour).Verify(token)
	suite.ErrorIs(err, ErrInvalidToken)

	_, err = tokens.Verify("not.a.token")
	suite.ErrorIs(err, ErrInvalidToken)

	expired, err := NewTokenManager("test-secret", -time.Minute).Issue(user)
	suite.Require().NoError(err)
	_, err = tokens.Verify(expired)
	suite.ErrorIs(err, ErrExpiredToken)
}
