package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
	"github.com/abhishek4kahol/deel-task/internal/app/core/usecase"
	"github.com/abhishek4kahol/deel-task/pkg/logger"
)

// Server 是 REST 入站 Adapter，負責參數解析與結果轉換
// 業務規則一律在核心層，這裡不做任何餘額或權限判斷
type Server struct {
	core *usecase.CoreUseCase
	log  *logger.Logger
}

func NewServer(core *usecase.CoreUseCase, log *logger.Logger) *Server {
	return &Server{
		core: core,
		log:  log.With("adapter", "http"),
	}
}

// Router 組裝路由，所有業務端點都在身分解析後面
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	v1 := r.Group("/v1", s.withProfile())
	v1.GET("/contracts", s.getContracts)
	v1.GET("/contracts/:id", s.getContractByID)
	v1.GET("/jobs/unpaid", s.getUnpaidJobs)
	v1.POST("/jobs/:job_id/pay", s.payForJob)
	v1.POST("/balances/deposit/:userId", s.depositToBalance)
	return r
}

func (s *Server) getContracts(c *gin.Context) {
	requester := profileFrom(c)
	contracts, err := s.core.ListContracts(c.Request.Context(), requester)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(contracts) == 0 {
		s.fail(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contracts})
}

func (s *Server) getContractByID(c *gin.Context) {
	// 格式錯誤的 id 不可能對應任何合約，與不存在同樣處理
	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, domain.ErrNotFound)
		return
	}
	contract, err := s.core.GetContract(c.Request.Context(), profileFrom(c), contractID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contract})
}

func (s *Server) getUnpaidJobs(c *gin.Context) {
	jobs, err := s.core.ListUnpaidJobs(c.Request.Context(), profileFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(jobs) == 0 {
		s.fail(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

func (s *Server) payForJob(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil {
		s.fail(c, domain.ErrNotFound)
		return
	}
	if err := s.core.PayJob(c.Request.Context(), jobID, profileFrom(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) depositToBalance(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		s.fail(c, domain.ErrNotFound)
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, domain.ErrInvalidAmount)
		return
	}
	balance, err := s.core.Deposit(c.Request.Context(), profileFrom(c).ID, targetID, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "balance": balance})
}

// fail 將核心錯誤轉成 {ok, kind, message} 回應
// 業務錯誤的訊息照實回傳；儲存層故障細節只進日誌，不外洩
func (s *Server) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	message := err.Error()
	if kind == domain.KindTransactionFailure {
		s.log.Error("transaction failed", "path", c.FullPath(), "error", err)
		message = "transaction could not be completed, no changes were applied"
	}
	c.JSON(statusOf(kind), gin.H{"ok": false, "kind": kind, "message": message})
}

// statusOf kind 對應的 HTTP 狀態碼
func statusOf(kind string) int {
	switch kind {
	case domain.KindInvalidAmount, domain.KindInsufficientFunds, domain.KindDepositLimitExceeded:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
