package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"Stitchup/auth"
	"Stitchup/models"
	"Stitchup/security"
	"Stitchup/utils/formaterror"

	"github.com/gin-gonic/gin"
)

// Login authenticates a back-office account with email and password.
func (server *Server) Login(c *gin.Context) {

	//clear previous error if any
	errList = map[string]string{}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}
	user := models.User{}
	err = json.Unmarshal(body, &user)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}
	user.Prepare()
	errorMessages := user.Validate("login")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}
	userData, err := server.SignIn(user.Email, user.Password)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  formattedError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userData,
	})
}

func (server *Server) SignIn(email, password string) (map[string]interface{}, error) {

	userData := make(map[string]interface{})

	user := models.User{}

	normalizedEmail := strings.ToLower(email)
	err := server.DB.Model(models.User{}).Where("lower(email) = ?", normalizedEmail).Take(&user).Error
	if err != nil {
		log.Println("error getting the user:", err)
		return nil, err
	}
	// Any verification failure rejects the login, including a corrupt
	// stored hash, not just a wrong password.
	err = security.VerifyPassword(user.Password, password)
	if err != nil {
		log.Println("password verification failed:", err)
		return nil, err
	}
	token, err := auth.CreateToken(user.ID)
	if err != nil {
		log.Println("error creating the token:", err)
		return nil, err
	}
	userData["token"] = token
	userData["id"] = user.PublicID
	userData["email"] = user.Email
	userData["username"] = user.Username
	userData["is_admin"] = user.IsAdmin

	return userData, nil
}
