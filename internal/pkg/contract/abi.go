package contract

// CreditScoringABI is the deployed credit-scoring contract interface. The
// service only calls this fixed ABI; it never deploys or upgrades the
// contract.
const CreditScoringABI = `[
  {
    "type": "function",
    "name": "addBorrower",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "_nid", "type": "string"},
      {"name": "_name", "type": "string"},
      {"name": "_profession", "type": "string"},
      {"name": "_accountBalance", "type": "uint256"},
      {"name": "_totalTransactions", "type": "uint256"},
      {"name": "_onTimePayments", "type": "uint256"},
      {"name": "_missedPayments", "type": "uint256"},
      {"name": "_totalRemainingLoan", "type": "uint256"},
      {"name": "_creditAgeMonths", "type": "uint256"},
      {"name": "_professionRiskScore", "type": "uint256"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "calculateCreditScore",
    "stateMutability": "view",
    "inputs": [{"name": "_nid", "type": "string"}],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "getCreditRating",
    "stateMutability": "view",
    "inputs": [{"name": "_nid", "type": "string"}],
    "outputs": [{"name": "", "type": "string"}]
  },
  {
    "type": "function",
    "name": "getMaxLoanAmount",
    "stateMutability": "view",
    "inputs": [
      {"name": "_nid", "type": "string"},
      {"name": "_monthlyIncome", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "requestLoan",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "_nid", "type": "string"},
      {"name": "_amount", "type": "uint256"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "getBorrower",
    "stateMutability": "view",
    "inputs": [{"name": "_nid", "type": "string"}],
    "outputs": [
      {"name": "name", "type": "string"},
      {"name": "profession", "type": "string"},
      {"name": "accountBalance", "type": "uint256"},
      {"name": "totalTransactions", "type": "uint256"},
      {"name": "onTimePayments", "type": "uint256"},
      {"name": "missedPayments", "type": "uint256"},
      {"name": "totalRemainingLoan", "type": "uint256"},
      {"name": "creditAgeMonths", "type": "uint256"},
      {"name": "professionRiskScore", "type": "uint256"},
      {"name": "exists", "type": "bool"}
    ]
  },
  {
    "type": "function",
    "name": "getScoreBreakdown",
    "stateMutability": "view",
    "inputs": [{"name": "_nid", "type": "string"}],
    "outputs": [
      {"name": "accountScore", "type": "uint256"},
      {"name": "txnScore", "type": "uint256"},
      {"name": "paymentScore", "type": "uint256"},
      {"name": "remainingScore", "type": "uint256"},
      {"name": "ageScore", "type": "uint256"},
      {"name": "professionScore", "type": "uint256"}
    ]
  },
  {
    "type": "event",
    "name": "BorrowerAdded",
    "inputs": [
      {"name": "nid", "type": "string", "indexed": true},
      {"name": "name", "type": "string", "indexed": false}
    ],
    "anonymous": false
  },
  {
    "type": "event",
    "name": "LoanRequested",
    "inputs": [
      {"name": "nid", "type": "string", "indexed": true},
      {"name": "amount", "type": "uint256", "indexed": false}
    ],
    "anonymous": false
  }
]`
