package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

const baseURL = "http://localhost:8080"

// AuthResponse структура ответа при аутентификации
type AuthResponse struct {
	Token string `json:"token"`
}

// MessageResponse — общий ответ с сообщением и редиректом
type MessageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// CheckoutRequest — форма чекаута
type CheckoutRequest struct {
	ShippingAddress    string `json:"shipping_address"`
	ShippingCountry    string `json:"shipping_country"`
	ShippingZip        string `json:"shipping_zip"`
	SameBillingAddress bool   `json:"same_billing_address"`
	PaymentOption      string `json:"payment_option"`
}

func authenticateUser(t *testing.T, username, password string) string {
	reqBody := []byte(`{"username": "` + username + `", "password": "` + password + `"}`)
	resp, err := http.Post(baseURL+"/api/auth", "application/json", bytes.NewBuffer(reqBody))
	assert.NoError(t, err, "Auth request should not error")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Expected 200 OK for valid auth")

	var authResp AuthResponse
	err = json.NewDecoder(resp.Body).Decode(&authResp)
	assert.NoError(t, err, "Decoding auth response should succeed")
	assert.NotEmpty(t, authResp.Token, "Token should not be empty")
	return authResp.Token
}

func authorizedGet(t *testing.T, token, path string) *http.Response {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{}
	resp, err := client.Do(req)
	assert.NoError(t, err)
	return resp
}

// сценарий с успешной аутентификацией пользователя
func TestAuth(t *testing.T) {
	token := authenticateUser(t, "testuser@gmail.com", "testpass")
	assert.NotEmpty(t, token, "token should be obtained")
}

// сценарий с безуспешной аутентификацией пользователя
func TestAuthInvalid(t *testing.T) {
	reqBody := []byte(`{"username": "", "password": ""}`)
	resp, err := http.Post(baseURL+"/api/auth", "application/json", bytes.NewBuffer(reqBody))
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "expected 400 for invalid auth")
}

// каталог открыт без авторизации
func TestHomePublic(t *testing.T) {
	resp, err := http.Get(baseURL + "/?page=1")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "expected 200 OK for catalog page")
}

// карточка несуществующего товара
func TestProductNotFound(t *testing.T) {
	resp, err := http.Get(baseURL + "/product/definitely-not-a-product")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "expected 404 for unknown product")
}

// корзина закрыта без токена
func TestOrderSummaryUnauthorized(t *testing.T) {
	resp, err := http.Get(baseURL + "/order-summary")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "expected 401 unauthorized for missing token")
}

// сценарий добавления товара в корзину и просмотра корзины
func TestAddToCartFlow(t *testing.T) {
	token := authenticateUser(t, "cartuser@test.com", "testpass")

	// Каталог должен быть предварительно наполнен товаром blue-shirt
	resp := authorizedGet(t, token, "/add-to-cart/blue-shirt")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "expected 200 for add-to-cart")

	var msg MessageResponse
	err := json.NewDecoder(resp.Body).Decode(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "/order-summary", msg.Redirect)

	summary := authorizedGet(t, token, "/order-summary")
	defer summary.Body.Close()
	assert.Equal(t, http.StatusOK, summary.StatusCode, "expected 200 for order summary")
}

// удаление товара, которого нет в корзине — информационный ответ, не ошибка
func TestRemoveMissingItem(t *testing.T) {
	token := authenticateUser(t, "emptycart@test.com", "testpass")

	resp := authorizedGet(t, token, "/remove-from-cart/blue-shirt")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "expected 200 informational response")
}

// чекаут с новыми адресами и оплатой картой
func TestCheckoutFlow(t *testing.T) {
	token := authenticateUser(t, "checkoutuser@test.com", "testpass")

	addResp := authorizedGet(t, token, "/add-to-cart/blue-shirt")
	addResp.Body.Close()

	requestBody := CheckoutRequest{
		ShippingAddress:    "1 Main St",
		ShippingCountry:    "US",
		ShippingZip:        "10001",
		SameBillingAddress: true,
		PaymentOption:      "S",
	}
	jsonBody, err := json.Marshal(requestBody)
	assert.NoError(t, err)

	req, err := http.NewRequest("POST", baseURL+"/checkout", bytes.NewBuffer(jsonBody))
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "expected 200 for valid checkout")

	var msg MessageResponse
	err = json.NewDecoder(resp.Body).Decode(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "/payment/stripe", msg.Redirect, "card option should redirect to stripe payment page")
}

// чекаут с неизвестным способом оплаты
func TestCheckoutInvalidOption(t *testing.T) {
	token := authenticateUser(t, "checkoutuser@test.com", "testpass")

	jsonBody := []byte(`{"use_default_shipping": true, "payment_option": "X"}`)
	req, err := http.NewRequest("POST", baseURL+"/checkout", bytes.NewBuffer(jsonBody))
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "expected 400 for unknown payment option")
}

// запрос возврата по неизвестному ref-коду открыт без авторизации
func TestRefundUnknownRefCode(t *testing.T) {
	jsonBody := []byte(`{"ref_code": "aaaaaaaaaaaaaaaaaaaa", "message": "damaged", "email": "buyer@example.com"}`)
	resp, err := http.Post(baseURL+"/request-refund", "application/json", bytes.NewBuffer(jsonBody))
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "expected 404 for unknown ref code")
}
