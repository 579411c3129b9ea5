package e2e

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
)

type testItemSharingSuite struct {
	BaseSuite
}

func TestItemSharing(t *testing.T) {
	suite.Run(t, &testItemSharingSuite{})
}

type itemView struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	Images   []string `json:"images"`
	Location struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	} `json:"location"`
}

var pngImage = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func (s *testItemSharingSuite) createItem(token, name string, lon, lat float64) itemView {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	s.Require().NoError(writer.WriteField("name", name))
	s.Require().NoError(writer.WriteField("description", "Picked up from the e2e suite"))
	s.Require().NoError(writer.WriteField("category", "furniture"))
	s.Require().NoError(writer.WriteField("location", fmt.Sprintf(`{"type":"Point","coordinates":[%f,%f]}`, lon, lat)))
	part, err := writer.CreateFormFile("images", "photo.png")
	s.Require().NoError(err)
	_, err = part.Write(pngImage)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	status, raw := s.Do(http.MethodPost, "/items", body, map[string]string{
		"Content-Type":  writer.FormDataContentType(),
		"Authorization": "Bearer " + token,
	})
	s.Require().Equal(http.StatusCreated, status, string(raw))

	var created struct {
		Message string   `json:"message"`
		Item    itemView `json:"item"`
	}
	s.Require().NoError(json.Unmarshal(raw, &created))
	s.Equal("Item created successfully", created.Message)
	return created.Item
}

func (s *testItemSharingSuite) TestShareAndFindItems() {
	var token, userID string
	var lamp itemView

	s.Run("Step 1: register and log in", func() {
		s.Step("Step 1: register and log in")
		registration := map[string]string{"username": "carol", "email": "carol@example.com", "password": "secret123"}
		s.Equal(http.StatusCreated, s.DoJSON(http.MethodPost, "/users/register", registration, nil, ""))
		s.Equal(http.StatusBadRequest, s.DoJSON(http.MethodPost, "/users/register", registration, nil, ""))

		var login struct {
			Token string `json:"token"`
			User  struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		credentials := map[string]string{"email": "carol@example.com", "password": "secret123"}
		s.Require().Equal(http.StatusOK, s.DoJSON(http.MethodPost, "/users/login", credentials, &login, ""))
		s.Require().NotEmpty(login.Token)
		token, userID = login.Token, login.User.ID
	})

	s.Run("Step 2: creating an item requires a token", func() {
		s.Step("Step 2: creating an item requires a token")
		status, _ := s.Do(http.MethodPost, "/items", nil, nil)
		s.Equal(http.StatusUnauthorized, status)
	})

	s.Run("Step 3: share an item with a picture", func() {
		s.Step("Step 3: share an item with a picture")
		lamp = s.createItem(token, "Reading lamp", 2.3522, 48.8566)
		s.Equal(userID, lamp.Owner)
		s.Equal("Point", lamp.Location.Type)
		s.Require().Len(lamp.Images, 1)

		status, _ := s.Do(http.MethodGet, lamp.Images[0], nil, nil)
		s.Equal(http.StatusOK, status)
	})

	s.Run("Step 4: the item is found nearby but not far away", func() {
		s.Step("Step 4: the item is found nearby but not far away")
		var nearby []itemView
		s.Equal(http.StatusOK, s.DoJSON(http.MethodGet, "/items?longitude=2.35&latitude=48.85&radius=5", nil, &nearby, ""))
		s.Require().Len(nearby, 1)
		s.Equal(lamp.ID, nearby[0].ID)

		var far []itemView
		s.Equal(http.StatusOK, s.DoJSON(http.MethodGet, "/items?longitude=-0.1276&latitude=51.5072&radius=5", nil, &far, ""))
		s.Empty(far)

		s.Equal(http.StatusBadRequest, s.DoJSON(http.MethodGet, "/items?longitude=2.35&latitude=48.85&radius=-1", nil, nil, ""))
	})

	s.Run("Step 5: the item is found by keyword", func() {
		s.Step("Step 5: the item is found by keyword")
		var found []itemView
		s.Equal(http.StatusOK, s.DoJSON(http.MethodGet, "/items/search?query=LAMP", nil, &found, ""))
		s.Require().Len(found, 1)
		s.Equal(lamp.ID, found[0].ID)

		s.Equal(http.StatusBadRequest, s.DoJSON(http.MethodGet, "/items/search?query=", nil, nil, ""))
	})

	s.Run("Step 6: seeded items show up first in recent", func() {
		s.Step("Step 6: seeded items show up first in recent")
		s.Equal(http.StatusCreated, s.DoJSON(http.MethodPost, "/items/seed", nil, nil, ""))

		var recent []itemView
		s.Equal(http.StatusOK, s.DoJSON(http.MethodGet, "/items/recent?limit=2", nil, &recent, ""))
		s.Require().Len(recent, 2)
		for _, item := range recent {
			s.NotEqual(lamp.ID, item.ID)
		}
	})

	s.Run("Step 7: the owner lists their items", func() {
		s.Step("Step 7: the owner lists their items")
		var mine []itemView
		s.Equal(http.StatusOK, s.DoJSON(http.MethodGet, "/items/user/"+userID, nil, &mine, token))
		s.Require().Len(mine, 1)
		s.Equal("Reading lamp", mine[0].Name)
	})
}
