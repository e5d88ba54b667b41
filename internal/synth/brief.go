package synth

import (
	"fmt"
	"strings"

	"github.com/dkhwang/memoir/internal/model"
)

// BuildBrief renders the investment-memorandum brief for the identity in
// the jurisdiction's output language. The heading outline is fixed; the
// subsystem generates subheadings under each.
func BuildBrief(identity model.CompanyIdentity, jurisdiction model.Jurisdiction) string {
	if jurisdiction == model.JurisdictionKorea {
		return koreanBrief(identity)
	}
	return englishBrief(identity)
}

func englishBrief(identity model.CompanyIdentity) string {
	return fmt.Sprintf(`As an investment associate, draft an information memorandum for company: %s
Information of Company: %s
ADD These in table of contents:

These are the Headings you need to use for IM and then generate sub headings for each heading
1.Executive Summary
2.Investment Highlights
3.Company Overview
    Introduction to %s
    History, Mission, and Core Values
    Global Presence and Operations
4.Business Model, Strategy, and Product
5.Business Segments Deep Dive
6.Industry Overview and Competitive Positioning
7.Financial Performance Analysis
8.Management and Corporate Governance
9.Strategic Initiatives and Future Growth Drivers
10.Risk Factors
11.Investment Considerations
12.Conclusion
13.References
`, identity.FullName, identitySummary(identity), identity.FullName)
}

func koreanBrief(identity model.CompanyIdentity) string {
	return fmt.Sprintf(`투자 담당자로서 회사 %s에 대한 정보 메모를 작성하십시오.
회사 정보: %s
목차에 다음 내용을 추가하십시오.

정보 메모에 사용해야 하는 제목은 다음과 같으며, 각 제목에 대한 하위 제목을 생성해야 합니다.
1. 요약
2. 투자 주요 내용
3. 회사 개요
%s 소개
연혁, 사명 및 핵심 가치
글로벌 입지 및 운영
4. 비즈니스 모델, 전략 및 제품
5. 사업 부문 심층 분석
6. 산업 개요 및 경쟁적 포지셔닝
7. 재무 성과 분석
8. 경영진 및 기업 지배구조
9. 전략적 이니셔티브 및 미래 성장 동력
10. 위험 요소
11. 투자 고려 사항
12. 결론
13. 참고 문헌
`, identity.FullName, identitySummary(identity), identity.FullName)
}

func identitySummary(identity model.CompanyIdentity) string {
	parts := []string{
		"name: " + identity.FullName,
	}
	if identity.Ticker != "" {
		parts = append(parts, "ticker: "+identity.Ticker)
	}
	if identity.Industry != "" {
		parts = append(parts, "industry: "+identity.Industry)
	}
	if identity.Description != "" {
		parts = append(parts, "description: "+identity.Description)
	}
	if len(identity.Competitors) > 0 {
		parts = append(parts, "competitors: "+strings.Join(identity.Competitors, ", "))
	}
	return strings.Join(parts, "; ")
}

// FallbackBody is the diagnostic text substituted for a report body when
// synthesis itself fails. The pipeline never terminates with an undefined
// artifact body.
func FallbackBody(identity model.CompanyIdentity, err error) string {
	return fmt.Sprintf("Report generation for %s did not complete: %v", identity.FullName, err)
}
