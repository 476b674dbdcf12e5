// Package modules holds the deployment modules shipped with the deployer.
//
//   - TokenAModule deploys TokenA without constructor arguments and forces a fresh deployment
//     on every run.
//   - StakingModule deploys Staking with the current Unix time in seconds and the token
//     address read from the TOKEN_ADDRESS environment variable.
package modules
