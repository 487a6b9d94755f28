// Package catalog ships the built-in question banks.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"assessment-service/internal/domain"
)

// DefaultBankID identifies the IZYSHOW accounting internship bank.
const DefaultBankID = "izyshow"

//go:embed izyshow.json
var izyshowJSON []byte

// Banks returns every embedded bank keyed by id.
func Banks() (map[string]domain.QuestionBank, error) {
	bank, err := parse(izyshowJSON)
	if err != nil {
		return nil, fmt.Errorf("parse %s bank: %w", DefaultBankID, err)
	}
	return map[string]domain.QuestionBank{bank.ID: bank}, nil
}

// MustBanks is Banks for callers that treat a broken embed as a build defect.
func MustBanks() map[string]domain.QuestionBank {
	banks, err := Banks()
	if err != nil {
		panic(err)
	}
	return banks
}

func parse(raw []byte) (domain.QuestionBank, error) {
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, err
	}
	if err := bank.Validate(); err != nil {
		return domain.QuestionBank{}, err
	}
	return bank, nil
}
