package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chat-go/internal/apperr"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/log"
)

// RAGHandler 负责检索问答的 HTTP 接口。
type RAGHandler struct {
	ragService service.RAGService
}

// NewRAGHandler 创建一个新的 RAGHandler 实例。
func NewRAGHandler(ragService service.RAGService) *RAGHandler {
	return &RAGHandler{ragService: ragService}
}

// Query 处理一次检索问答请求。
func (h *RAGHandler) Query(c *gin.Context) {
	var req model.QueryRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求体", "data": nil})
		return
	}

	log.Infof("[RAGHandler] 收到问答请求, 问题长度: %d", len(req.Question))
	resp, err := h.ragService.Query(c.Request.Context(), req)
	if err != nil {
		if apperr.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
			return
		}
		log.Errorf("[RAGHandler] 问答处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "问答处理失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": resp})
}
