package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RequestLogger логирует каждый запрос: метод, путь, статус, длительность
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[HTTP] %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// ImportRateLimit ограничивает частоту запросов на импорт. Обработка
// выгрузки держит транзакцию и разбирает весь файл, поэтому параллельные
// загрузки только мешают друг другу.
func ImportRateLimit(perSec float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Слишком много запросов на импорт, повторите позже",
			})
			return
		}
		c.Next()
	}
}
