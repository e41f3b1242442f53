package service

// precedentCase is one entry of the embedded sample precedent corpus.
// Keywords drive keyword retrieval; the pgvector index replaces this corpus
// in production without changing the retriever contract.
type precedentCase struct {
	CaseNumber   string
	Summary      string
	Court        string
	Date         string
	RelevantText string
	Keywords     []string
}

// contractCases covers general contract-law precedent
var contractCases = []precedentCase{
	{
		CaseNumber:   "대법원 2019다12345",
		Summary:      "투자계약에서 일방적 해지권 조항은 신의성실 원칙에 반할 수 있음",
		Court:        "대법원",
		Date:         "2019-05-15",
		RelevantText: "투자계약에서 투자자에게만 일방적 해지권을 부여한 조항은 계약 당사자 간 균형을 현저히 해치는 것으로...",
		Keywords:     []string{"해지", "해제", "일방적", "투자"},
	},
	{
		CaseNumber:   "대법원 2020다67890",
		Summary:      "경업금지 조항의 기간과 범위는 합리적으로 제한되어야 함",
		Court:        "대법원",
		Date:         "2020-08-20",
		RelevantText: "퇴직 후 경업금지 의무를 부과하는 조항은 그 기간, 지역적 범위, 대상 직종 등이 합리적으로 제한되어야...",
		Keywords:     []string{"경업금지", "퇴직", "겸업"},
	},
	{
		CaseNumber:   "서울고등법원 2021나11111",
		Summary:      "손해배상액 예정 조항이 과다한 경우 감액 가능",
		Court:        "서울고등법원",
		Date:         "2021-03-10",
		RelevantText: "계약 위반 시 손해배상액을 예정한 조항이 실제 손해에 비해 현저히 과다한 경우 법원은 이를 감액할 수...",
		Keywords:     []string{"손해배상", "배상액", "감액"},
	},
	{
		CaseNumber:   "대법원 2018다55555",
		Summary:      "계약 해제 시 위약금 조항은 민법 제398조에 따라 감액 가능",
		Court:        "대법원",
		Date:         "2018-11-22",
		RelevantText: "위약금 약정이 있는 경우에도 그 액수가 부당하게 과다한 경우 법원은 적당히 감액할 수 있다...",
		Keywords:     []string{"위약금", "해제", "손해배상"},
	},
	{
		CaseNumber:   "대법원 2022다33333",
		Summary:      "면책조항이 있더라도 고의 또는 중과실에 의한 손해는 면책 불가",
		Court:        "대법원",
		Date:         "2022-03-17",
		RelevantText: "계약서에 면책조항이 있더라도 고의 또는 중대한 과실로 인한 손해배상책임은 면제되지 않는다...",
		Keywords:     []string{"면책", "책임", "고의", "중과실"},
	},
}

// laborCases covers the labor-law consultation variant
var laborCases = []precedentCase{
	{
		CaseNumber: "대법원 2020다12345",
		Summary:    "해고예고 없이 즉시 해고한 경우 30일분 통상임금을 해고예고수당으로 지급해야 함",
		Court:      "대법원",
		Date:       "2020-03-15",
		Keywords:   []string{"해고", "해고예고", "해고예고수당", "즉시해고"},
	},
	{
		CaseNumber: "대법원 2019다67890",
		Summary:    "정당한 이유 없는 해고는 부당해고로서 무효이며, 근로자는 원직복직 및 해고기간 임금 청구 가능",
		Court:      "대법원",
		Date:       "2019-08-20",
		Keywords:   []string{"부당해고", "해고", "원직복직", "권고사직"},
	},
	{
		CaseNumber: "대법원 2021다11111",
		Summary:    "임금체불에 대해 퇴직일로부터 14일 이내 미지급 시 연 20% 지연이자 발생",
		Court:      "대법원",
		Date:       "2021-05-10",
		Keywords:   []string{"임금체불", "임금", "월급", "지연이자", "퇴직금"},
	},
	{
		CaseNumber: "서울고등법원 2022나22222",
		Summary:    "직장 내 괴롭힘에 해당하는 행위로 인한 정신적 손해에 대해 사용자 배상책임 인정",
		Court:      "서울고등법원",
		Date:       "2022-07-15",
		Keywords:   []string{"괴롭힘", "폭언", "갑질", "따돌림", "정신적손해"},
	},
	{
		CaseNumber: "대법원 2018다33333",
		Summary:    "근로계약서 미작성 시에도 실질적 근로관계가 인정되면 근로기준법상 보호 적용",
		Court:      "대법원",
		Date:       "2018-11-22",
		Keywords:   []string{"근로계약서", "근로관계", "프리랜서", "특수고용"},
	},
	{
		CaseNumber: "대법원 2020다44444",
		Summary:    "연차휴가 미사용 수당은 퇴직 시 정산하여 지급해야 함",
		Court:      "대법원",
		Date:       "2020-09-30",
		Keywords:   []string{"연차", "휴가", "연차수당", "미사용연차"},
	},
	{
		CaseNumber: "대법원 2019다55555",
		Summary:    "업무상 재해로 인한 부상은 산재보험으로 보상받을 권리가 있음",
		Court:      "대법원",
		Date:       "2019-04-25",
		Keywords:   []string{"산재", "산업재해", "업무상재해", "부상", "치료"},
	},
	{
		CaseNumber: "서울행정법원 2021구합66666",
		Summary:    "5인 미만 사업장도 임금체불, 퇴직금, 최저임금 규정은 적용됨",
		Court:      "서울행정법원",
		Date:       "2021-12-10",
		Keywords:   []string{"5인미만", "소규모", "퇴직금", "최저임금"},
	},
}
