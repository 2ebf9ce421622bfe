package router

import (
	"contract-risk-rag/api/handler"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, contractH *handler.ContractHandler) {
	api := r.Group("/api/v1")
	{
		api.POST("/ask", contractH.Ask)
		api.POST("/ask-simple", contractH.AskSimple)
		api.POST("/analyze-contract", contractH.AnalyzeContract)
		api.GET("/analyses/:contractId", contractH.ListAnalyses)

		knowledge := api.Group("/knowledge")
		{
			knowledge.POST("/ingest", contractH.Ingest)
		}
		llm := api.Group("/llm")
		{
			llm.GET("/ping", contractH.Ping)
		}
	}
}
