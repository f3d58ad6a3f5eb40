// Package refcode генерирует ref-коды заказов: короткие идентификаторы,
// по которым финализированный заказ находят при запросе возврата.
package refcode

import "math/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length — длина ref-кода заказа.
const Length = 20

// New возвращает случайный код из len символов [a-z0-9].
// Уникальность обеспечивается ограничением в БД, не генератором.
func New(length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(code)
}
