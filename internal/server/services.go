package server

import (
	"membership-api/internal/client"
	"membership-api/internal/repository"
	"membership-api/internal/service"

	"gorm.io/gorm"
)

// NewServices wires repositories into the service layer.
func NewServices(db *gorm.DB, razorpayClient client.RazorpayClient, signatureSecret string) *Services {
	planRepo := repository.NewPlanRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	callRepo := repository.NewCallRepository(db)
	unlockRepo := repository.NewUnlockRepository(db)
	chatRepo := repository.NewChatRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentEventRepo := repository.NewPaymentEventRepository(db)

	membershipService := service.NewMembershipService(membershipRepo)

	return &Services{
		Payment: service.NewPaymentService(
			razorpayClient,
			orderRepo,
			service.NewSignatureVerifier(signatureSecret),
			service.NewEntitlementResolver(callRepo),
			service.NewEntitlementWriter(db, membershipRepo, unlockRepo, orderRepo, paymentEventRepo),
		),
		Membership: membershipService,
		Plan:       service.NewPlanService(db, planRepo, membershipRepo, chatRepo),
		Call:       service.NewCallService(callRepo, unlockRepo),
		Chat:       service.NewChatService(chatRepo, planRepo, membershipService),
	}
}
