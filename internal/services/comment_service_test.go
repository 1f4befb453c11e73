package services

import (
	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/utils"
)

func (suite *ServiceTestSuite) TestPostComment() {
	owner := suite.createUser("owner")
	outsider := suite.createUser("outsider")
	project := suite.createProject(owner, nil)

	comment, err := suite.comments.Post(suite.ctx, owner, PostCommentInput{
		ProjectID: project.ID,
		Text:      "  first!  ",
		ImageURL:  ptr("https://img.example.com/a.png"),
	})
	suite.Require().NoError(err)
	suite.Equal("first!", comment.Text)
	suite.Equal(owner.UserID, comment.User.ID)
	suite.Require().NotNil(comment.ImageURL)
	suite.Equal("https://img.example.com/a.png", *comment.ImageURL)

	_, err = suite.comments.Post(suite.ctx, owner, PostCommentInput{ProjectID: project.ID, Text: " \n\t "})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)
	suite.Equal(apperrors.ReasonEmptyText, apperrors.ReasonOf(err))

	_, err = suite.comments.Post(suite.ctx, outsider, PostCommentInput{ProjectID: project.ID, Text: "hi"})
	suite.requireCode(err, apperrors.ErrCodeForbidden)
}

func (suite *ServiceTestSuite) TestEditComment_AuthorOnly() {
	owner := suite.createUser("owner")
	author := suite.createUser("author")
	project := suite.createProject(owner, nil, author)

	comment, err := suite.comments.Post(suite.ctx, author, PostCommentInput{
		ProjectID: project.ID,
		Text:      "draft",
		ImageURL:  ptr("https://img.example.com/a.png"),
	})
	suite.Require().NoError(err)

	_, err = suite.comments.Edit(suite.ctx, owner, comment.ID, EditCommentInput{Text: ptr("owner edit")})
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.comments.Edit(suite.ctx, author, comment.ID, EditCommentInput{Text: ptr("")})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	edited, err := suite.comments.Edit(suite.ctx, author, comment.ID, EditCommentInput{Text: ptr("final"), ClearImage: true})
	suite.Require().NoError(err)
	suite.Equal("final", edited.Text)
	suite.Nil(edited.ImageURL)
	suite.Equal(author.UserID, edited.UserID)
}

func (suite *ServiceTestSuite) TestDeleteComment() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	author := suite.createUser("author")
	other := suite.createUser("other")
	project := suite.createProject(owner, &leader, author, other)

	post := func() uint64 {
		comment, err := suite.comments.Post(suite.ctx, author, PostCommentInput{ProjectID: project.ID, Text: "note"})
		suite.Require().NoError(err)
		return comment.ID
	}

	id := post()
	suite.requireCode(suite.comments.Delete(suite.ctx, other, id), apperrors.ErrCodeForbidden)
	suite.NoError(suite.comments.Delete(suite.ctx, author, id))
	suite.requireCode(suite.comments.Delete(suite.ctx, author, id), apperrors.ErrCodeNotFound)

	suite.NoError(suite.comments.Delete(suite.ctx, owner, post()))
	suite.NoError(suite.comments.Delete(suite.ctx, leader, post()))
}

func (suite *ServiceTestSuite) TestListComments_OrderAndPagination() {
	owner := suite.createUser("owner")
	outsider := suite.createUser("outsider")
	project := suite.createProject(owner, nil)

	for _, text := range []string{"one", "two", "three"} {
		_, err := suite.comments.Post(suite.ctx, owner, PostCommentInput{ProjectID: project.ID, Text: text})
		suite.Require().NoError(err)
	}

	all, total, err := suite.comments.ListByProject(suite.ctx, owner, project.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(all, 3)
	suite.Equal("one", all[0].Text)
	suite.Equal("three", all[2].Text)

	page := utils.NewPaginationParams(2, 2)
	paged, total, err := suite.comments.ListByProject(suite.ctx, owner, project.ID, &page)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(paged, 1)
	suite.Equal("three", paged[0].Text)

	_, _, err = suite.comments.ListByProject(suite.ctx, outsider, project.ID, nil)
	suite.requireCode(err, apperrors.ErrCodeForbidden)
}
